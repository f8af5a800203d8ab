// internal/models/branding.go
package models

// AppConfig is the process-wide branding shown by clients. It is replaced
// wholesale on save.
type AppConfig struct {
	AppName     string `json:"appName"`
	AppSubtitle string `json:"appSubtitle"`
	LogoURL     string `json:"logoUrl"`
}

// DefaultAppConfig is used when nothing has been saved yet.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		AppName:     "EHA Summer Camp",
		AppSubtitle: "Digital Registration Portal",
	}
}
