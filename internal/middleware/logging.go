package middleware

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hongminglow/tweeter-be/internal/http/respond"
	"github.com/hongminglow/tweeter-be/internal/ids"
	"github.com/hongminglow/tweeter-be/internal/logging"
	"github.com/hongminglow/tweeter-be/internal/metrics"
)

// Logging attaches a request-scoped logger to the context, records request
// metrics, and converts panics into 500 responses.
func Logging(base *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = ids.New()
		}
		rw.Header().Set("X-Request-ID", reqID)

		logger := base.With("req_id", reqID, "method", r.Method, "path", r.URL.Path)
		r = r.WithContext(logging.WithContext(r.Context(), logger))

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic serving request", "panic", rec)
				if !rw.wrote {
					respond.Error(rw, http.StatusInternalServerError, "internal server error")
				}
			}

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			logger.Info("http_request", "status", rw.status, "duration_ms", time.Since(start).Milliseconds())
		}()

		next.ServeHTTP(rw, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack is required for websocket upgrades.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	w.wrote = true
	return h.Hijack()
}
