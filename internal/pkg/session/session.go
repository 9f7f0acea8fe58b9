package session

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/dreambrush/portal/internal/pkg/billing"
	"github.com/dreambrush/portal/internal/pkg/cache"
	"github.com/dreambrush/portal/internal/pkg/env"
)

// Session keys for the signed-in principal. The bearer token and the cached
// user copy are the only shared mutable state the portal holds.
const (
	keyUserID    = "user_id"
	keyUserName  = "username"
	keyUserEmail = "user_email"
	keyUserTier  = "user_tier"
	keyToken     = "api_token"
)

var sessionStore *session.Store

// NewSessionStore initializes the portal session store. Sessions live in
// redis by default; SESSION_STORAGE=memory keeps them in-process for tests
// and local development without a cache server.
func NewSessionStore() *session.Store {
	cfg := session.Config{
		CookieHTTPOnly: true,
		Expiration:     time.Hour * 1,
		KeyLookup:      "cookie:session_id",
	}

	if env.GetEnv("SESSION_STORAGE", "redis") != "memory" {
		cfg.Storage = newRedisStorage()
	}

	sessionStore = session.New(cfg)
	return sessionStore
}

func newRedisStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient := cache.GetClient(); cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Sessions use database 1; the cache uses DB 0.
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SignIn stores the authenticated principal and its backend bearer token.
func SignIn(c *fiber.Ctx, user *billing.User, token string) error {
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	sess.Set(keyUserID, user.ID)
	sess.Set(keyUserName, user.Name)
	sess.Set(keyUserEmail, user.Email)
	sess.Set(keyUserTier, string(user.Tier))
	sess.Set(keyToken, token)
	return sess.Save()
}

// SignOut destroys the session entirely. Used on logout and on the global
// 401 side effect.
func SignOut(c *fiber.Ctx) error {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// CurrentUser returns the session copy of the signed-in user, or nil for an
// anonymous visitor.
func CurrentUser(c *fiber.Ctx) *billing.User {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return nil
	}
	id, ok := sess.Get(keyUserID).(uint)
	if !ok || id == 0 {
		return nil
	}
	name, _ := sess.Get(keyUserName).(string)
	email, _ := sess.Get(keyUserEmail).(string)
	tier, _ := sess.Get(keyUserTier).(string)
	return &billing.User{
		ID:    id,
		Name:  name,
		Email: email,
		Tier:  billing.ParseTier(tier),
	}
}

// Token returns the backend bearer token for the current session, or "".
func Token(c *fiber.Ctx) string {
	return GetSessionValue(c, keyToken)
}

// UpdateTier refreshes the session copy of the user's tier after the backend
// confirmed a subscription change.
func UpdateTier(c *fiber.Ctx, tier billing.Tier) error {
	return SetSessionValue(c, keyUserTier, string(tier))
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue retrieves a value by key from the user's individual session
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	if strValue, ok := sess.Get(key).(string); ok {
		return strValue
	}
	return ""
}

// DeleteSessionValue removes a key from the user's individual session.
func DeleteSessionValue(c *fiber.Ctx, key string) error {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return err
	}
	sess.Delete(key)
	return sess.Save()
}

// SetJSON serializes v into the session under key. Used for the upgrade
// wizard's transient state.
func SetJSON(c *fiber.Ctx, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return SetSessionValue(c, key, string(raw))
}

// GetJSON deserializes the session value under key into v. Returns false
// when the key is absent.
func GetJSON(c *fiber.Ctx, key string, v interface{}) (bool, error) {
	raw := GetSessionValue(c, key)
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, err
	}
	return true, nil
}
