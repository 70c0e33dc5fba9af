package middleware

import (
	"net/http"
	"strings"

	"ticket-marketplace-backend/config"
	c "ticket-marketplace-backend/context"
	"ticket-marketplace-backend/firebase"
	"ticket-marketplace-backend/logger"
	"ticket-marketplace-backend/response"
)

// PrincipalHeader carries the caller in header mode, where an upstream
// gateway has already authenticated the request.
const PrincipalHeader = "X-Principal"

// Identity stores the caller principal in the request context. Requests
// without credentials pass through anonymously; handlers that need a caller
// reject them. A credential that does not verify is rejected here.
func Identity(mode string, verifier firebase.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var principal string
			switch mode {
			case config.AuthHeader:
				principal = strings.TrimSpace(r.Header.Get(PrincipalHeader))
			default:
				token := bearerToken(r)
				if token == "" {
					break
				}
				var err error
				principal, err = verifier.Verify(ctx, token)
				if err != nil {
					logger.Warnf(ctx, "identity: rejected token: %v", err)
					response.Unauthorized().Send(ctx, w)
					return
				}
			}

			if principal != "" {
				ctx = c.SetContextWithValue(ctx, c.ContextKeyPrincipal, principal)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
