package middleware

import (
	"net/http"

	"github.com/google/uuid"

	c "ticket-marketplace-backend/context"
	"ticket-marketplace-backend/logger"
)

const CorrelationIDHeader = "Correlation-Id"

func SetCorrelationIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(CorrelationIDHeader)
		ctx := c.SetContextWithValue(r.Context(), c.ContextKeyCorrelationID, correlationID)
		if len(correlationID) == 0 {
			correlationID = uuid.New().String()
			ctx = c.SetContextWithValue(ctx, c.ContextKeyCorrelationID, correlationID)
			logger.Debugf(ctx, "No correlation id provided. Generated a new one")
			r.Header.Set(CorrelationIDHeader, correlationID)
		}
		w.Header().Set(CorrelationIDHeader, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
