package dashboard

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"form-digitizer/internal/models"

	"github.com/shopspring/decimal"
)

const (
	unknownGender = "unknown"
	otherCity     = "other"
	topCityCount  = 5
	recentCount   = 10
)

type Bucket struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

type Stats struct {
	Total        int                       `json:"total"`
	Genders      []Bucket                  `json:"genders"`
	Cities       []Bucket                  `json:"cities"`
	TopCities    []Bucket                  `json:"topCities"`
	TotalRevenue decimal.Decimal           `json:"totalRevenue"`
	Recent       []models.RegistrationData `json:"recent"`
}

var addressSeparators = regexp.MustCompile(`[\s,]+`)

// ComputeStats aggregates rows that are already in display order.
func ComputeStats(rows []models.RegistrationData) Stats {
	genders := map[string]int{}
	cities := map[string]int{}
	revenue := decimal.Zero

	for _, r := range rows {
		genders[genderOf(r.Gender)]++
		cities[cityOf(r.Address)]++
		revenue = revenue.Add(models.ParseAmount(r.InitialPayment))
	}

	total := len(rows)
	cityBuckets := buckets(cities, total)
	top := cityBuckets
	if len(top) > topCityCount {
		top = top[:topCityCount]
	}

	recent := rows
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}

	return Stats{
		Total:        total,
		Genders:      buckets(genders, total),
		Cities:       cityBuckets,
		TopCities:    append([]Bucket(nil), top...),
		TotalRevenue: revenue,
		Recent:       append([]models.RegistrationData{}, recent...),
	}
}

func genderOf(g string) string {
	g = strings.ToLower(strings.TrimSpace(g))
	if g == "" {
		return unknownGender
	}
	return g
}

// cityOf takes the last address token longer than three characters.
func cityOf(address string) string {
	var last string
	for _, tok := range addressSeparators.Split(address, -1) {
		if len([]rune(tok)) > 3 {
			last = tok
		}
	}
	if last == "" {
		return otherCity
	}
	return strings.ToLower(last)
}

// Percent is count as a rounded share of total; a zero total gives 0.
func Percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) * 100 / float64(total)))
}

// buckets sorts by count descending, then label.
func buckets(counts map[string]int, total int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		out = append(out, Bucket{Label: label, Count: n, Percent: Percent(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
