package middleware

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"places-server/utils/errors"
	"places-server/utils/logger"
)

// ErrorMiddleware recovers panics and answers them with a JSON 500.
func ErrorMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(r.Context(), "panic recovered",
						logger.Any("panic", rec), logger.String("path", r.URL.Path))
					WriteError(r.Context(), w, log, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError writes err as a JSON API error. Errors that are not APIErrors
// become a 500.
func WriteError(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) {
		apiErr = errors.Wrap(err, "UNKNOWN_ERROR", "Unexpected error", errors.ErrInternal.Status)
	}
	if apiErr.Status >= http.StatusInternalServerError && log != nil {
		log.Error(ctx, "server error",
			logger.String("code", apiErr.Code), logger.String("details", apiErr.Details))
	}

	WriteJSON(w, apiErr.Status, apiErr)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
