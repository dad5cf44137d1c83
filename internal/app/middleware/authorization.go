package middleware

import (
	"context"
	"crypto/subtle"
	"errors"

	"staycal/internal/app/commands"
)

var ErrForbidden = errors.New("middleware: operator token required")

// Protected marks commands that change stored calendars.
type Protected interface {
	Protected() bool
}

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

type tokenKey struct{}

// WithOperatorToken stores the caller's token for TokenAuthorizer.
func WithOperatorToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenAuthorizer lets Protected commands through only with the configured
// operator token. An empty token disables the check.
type TokenAuthorizer struct {
	Token string
}

func (a TokenAuthorizer) Authorize(ctx context.Context, message any) error {
	p, ok := message.(Protected)
	if !ok || !p.Protected() || a.Token == "" {
		return nil
	}
	got, _ := ctx.Value(tokenKey{}).(string)
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.Token)) != 1 {
		return ErrForbidden
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}
