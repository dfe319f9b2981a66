package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyClientID ctxKey = "client_id"
	CtxKeyScopes   ctxKey = "scopes"
	CtxKeyClaims   ctxKey = "claims"
	// CtxKeyRawToken carries the bearer token exactly as presented, for
	// handlers that need its fingerprint (e.g. domain authorization).
	CtxKeyRawToken ctxKey = "raw_token"
)

func scopesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}

// UserIDFromCtx returns the authenticated subject, if any.
func UserIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// RawTokenFromCtx returns the presented bearer token, if any.
func RawTokenFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRawToken).(string); ok {
		return v
	}
	return ""
}
