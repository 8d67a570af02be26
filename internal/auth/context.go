package auth

import "context"

type ctxKey struct{}

// Claims is the per-request principal derived from a validated access token.
type Claims struct {
	UserID   int64
	Username string
	Roles    []string
}

func (c Claims) Authenticated() bool { return c.UserID != 0 }

func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) Claims {
	if v, ok := ctx.Value(ctxKey{}).(Claims); ok {
		return v
	}
	return Claims{}
}

// ActorID returns the current principal's id for audit stamping, nil when the
// request is unauthenticated.
func ActorID(ctx context.Context) *int64 {
	c := FromContext(ctx)
	if !c.Authenticated() {
		return nil
	}
	id := c.UserID
	return &id
}
