package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextSessionKey ctxKey = "session"

// Role is the closed set of capabilities a request can carry.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return r.rank() >= min.rank()
}

// ParseRole maps a stored role string onto the enum. Unknown values fall back to user
// for authenticated principals.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleAnonymous:
		return RoleAnonymous
	default:
		return RoleUser
	}
}

// HomePath is where a principal lands after login or when a guard turns them away.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleUser:
		return "/dashboard"
	default:
		return "/login"
	}
}

// Session is resolved once per request and passed explicitly to whatever needs an actor.
type Session struct {
	UserID string
	Email  string
	Role   Role
}

func AnonymousSession() Session {
	return Session{Role: RoleAnonymous}
}

func (s Session) IsAuthenticated() bool {
	return s.Role != RoleAnonymous && s.UserID != ""
}

func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ContextSessionKey, s)
}

// SessionFromContext returns the anonymous session when none was attached.
func SessionFromContext(ctx context.Context) Session {
	if ctx == nil {
		return AnonymousSession()
	}
	if s, ok := ctx.Value(ContextSessionKey).(Session); ok {
		return s
	}
	return AnonymousSession()
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
