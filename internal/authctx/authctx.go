package authctx

import (
	"context"
)

type ctxKey string

const (
	uidKey    ctxKey = "uid"
	claimsKey ctxKey = "claims"
)

func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, uidKey, uid)
}

func UID(ctx context.Context) (string, bool) {
	v := ctx.Value(uidKey)
	uid, ok := v.(string)
	return uid, ok && uid != ""
}

func WithClaims(ctx context.Context, claims map[string]interface{}) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Claims(ctx context.Context) (map[string]interface{}, bool) {
	v := ctx.Value(claimsKey)
	claims, ok := v.(map[string]interface{})
	return claims, ok
}

// DisplayName pulls the best available display name out of token claims.
func DisplayName(ctx context.Context) string {
	claims, ok := Claims(ctx)
	if !ok {
		return ""
	}
	if name, ok := claims["name"].(string); ok && name != "" {
		return name
	}
	if email, ok := claims["email"].(string); ok {
		return email
	}
	return ""
}

// Email pulls the email claim if present.
func Email(ctx context.Context) string {
	claims, ok := Claims(ctx)
	if !ok {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}
