// Package access is the login lock in front of the portal. It decides which
// surfaces a client shows; it is not a security boundary.
package access

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"form-digitizer/internal/common/config"
	apperrors "form-digitizer/internal/common/errors"
	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/common/validation"
	"form-digitizer/internal/models"

	"github.com/google/uuid"
)

type Config struct {
	FallbackUsername string
	FallbackPassword string
	SessionTTL       time.Duration
}

func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		FallbackUsername: cfg.Access.FallbackUsername,
		FallbackPassword: cfg.Access.FallbackPassword,
		SessionTTL:       cfg.SessionTTL(),
	}
}

type Gate struct {
	config    *Config
	kv        storage.KV
	validator *validation.StructValidator
	logger    logger.Logger
	mu        sync.Mutex // serializes user list read-modify-write
}

func NewGate(kv storage.KV, cfg *Config, log logger.Logger) *Gate {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Gate{
		config:    cfg,
		kv:        kv,
		validator: validation.NewStructValidator(),
		logger:    log.WithFields(map[string]interface{}{"component": "access"}),
	}
}

// ==========================
// Sessions
// ==========================

// Login checks the fallback account first, then the stored user list.
func (g *Gate) Login(ctx context.Context, username, password string) (*models.Session, error) {
	role, ok := g.authenticate(ctx, username, password)
	if !ok {
		g.logger.Info("login rejected", map[string]interface{}{"username": username})
		return nil, apperrors.NewInvalidCredentialsError()
	}

	now := time.Now().UTC()
	sess := &models.Session{
		Token:     uuid.NewString(),
		Username:  username,
		Role:      role,
		CreatedAt: now,
	}
	if g.config.SessionTTL > 0 {
		sess.ExpiresAt = now.Add(g.config.SessionTTL)
	}

	if err := storage.SetJSON(ctx, g.kv, storage.SessionKey(sess.Token), sess, g.config.SessionTTL); err != nil {
		return nil, apperrors.NewStorageFailedError("session.save", err)
	}

	g.logger.Info("login accepted", map[string]interface{}{
		"username": username,
		"role":     string(role),
	})
	return sess, nil
}

func (g *Gate) authenticate(ctx context.Context, username, password string) (models.Role, bool) {
	if g.config.FallbackUsername != "" &&
		username == g.config.FallbackUsername && password == g.config.FallbackPassword {
		return models.RoleSuperAdmin, true
	}
	for _, u := range g.loadUsers(ctx) {
		if u.Username == username && u.Password == password {
			return u.Role, true
		}
	}
	return "", false
}

// Session resolves a token to its session.
func (g *Gate) Session(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("missing session token")
	}
	var sess models.Session
	err := storage.GetJSON(ctx, g.kv, storage.SessionKey(token), &sess)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			g.logger.Warn("unreadable session", map[string]interface{}{"error": err.Error()})
		}
		return nil, apperrors.NewUnauthorizedError("unknown session")
	}
	if sess.IsExpired() {
		_ = g.kv.Delete(ctx, storage.SessionKey(token))
		return nil, apperrors.NewUnauthorizedError("session expired")
	}
	return &sess, nil
}

// Logout drops the session. Unknown tokens are ignored.
func (g *Gate) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := g.kv.Delete(ctx, storage.SessionKey(token)); err != nil {
		return apperrors.NewStorageFailedError("session.delete", err)
	}
	return nil
}

// ==========================
// User List
// ==========================

// ListUsers returns the stored accounts sorted by username.
func (g *Gate) ListUsers(ctx context.Context) []models.UserAccount {
	users := g.loadUsers(ctx)
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

// SaveUser creates or replaces the account with the same username.
func (g *Gate) SaveUser(ctx context.Context, u models.UserAccount) (models.UserAccount, error) {
	u.Username = strings.TrimSpace(u.Username)
	if res := g.validator.Validate(u); !res.Valid {
		return models.UserAccount{}, apperrors.NewValidationError(res.FieldMessages())
	}
	if u.Username == g.config.FallbackUsername {
		return models.UserAccount{}, apperrors.NewValidationError(map[string]string{
			"username": "Username is reserved",
		})
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	users := g.loadUsers(ctx)
	replaced := false
	for i := range users {
		if users[i].Username == u.Username {
			users[i] = u
			replaced = true
		}
	}
	if !replaced {
		users = append(users, u)
	}

	if err := storage.SetJSON(ctx, g.kv, storage.KeyUsers, users, 0); err != nil {
		return models.UserAccount{}, apperrors.NewStorageFailedError("users.save", err)
	}
	g.logger.Info("user saved", map[string]interface{}{
		"username": u.Username,
		"role":     string(u.Role),
		"created":  !replaced,
	})
	return u, nil
}

// DeleteUser removes an account. Its open sessions run until they expire.
func (g *Gate) DeleteUser(ctx context.Context, username string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	users := g.loadUsers(ctx)
	kept := users[:0]
	for _, u := range users {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return apperrors.NewValidationError(map[string]string{"username": "User not found"})
	}

	if err := storage.SetJSON(ctx, g.kv, storage.KeyUsers, kept, 0); err != nil {
		return apperrors.NewStorageFailedError("users.save", err)
	}
	g.logger.Info("user deleted", map[string]interface{}{"username": username})
	return nil
}

// loadUsers tolerates a missing or corrupt list.
func (g *Gate) loadUsers(ctx context.Context) []models.UserAccount {
	var users []models.UserAccount
	err := storage.GetJSON(ctx, g.kv, storage.KeyUsers, &users)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			g.logger.Warn("ignoring unreadable user list", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}
	return users
}
