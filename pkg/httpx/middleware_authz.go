package httpx

import (
	"net/http"
	"slices"
)

// RequireAnyScope allows the request through when the token carries at least
// one of the listed scopes. Must run after AuthnMiddleware.
func RequireAnyScope(scopes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			granted := scopesFromCtx(r.Context())
			for _, want := range scopes {
				if slices.Contains(granted, want) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeScopeError(w, scopes)
		})
	}
}

func writeScopeError(w http.ResponseWriter, required []string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
	WriteJSON(w, http.StatusForbidden, map[string]any{
		"error":             "insufficient_scope",
		"error_description": "token lacks a required scope",
		"required_scopes":   required,
	})
}
