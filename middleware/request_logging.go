package middleware

import (
	"net/http"

	"ticket-marketplace-backend/logger"
)

func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debugf(r.Context(), "Request - %s %s, Principal: %q", r.Method, r.URL, r.Header.Get(PrincipalHeader))
		next.ServeHTTP(w, r)
	})
}
