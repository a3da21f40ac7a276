package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"go.jetpack.io/typeid"
)

const RequestIDHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WithRequestLogging tags each response with a request id and logs one line
// per request once next has returned.
func WithRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id, err := typeid.New("req")
			if err != nil {
				slog.WarnContext(r.Context(), "failed to generate request id", slog.String("error", err.Error()))
			} else {
				w.Header().Set(RequestIDHeader, id.String())
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			slog.InfoContext(
				r.Context(),
				"handled request",
				slog.String("request_id", w.Header().Get(RequestIDHeader)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		},
	)
}
