package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// boundedPath keeps the path label to the endpoints the server knows about
func boundedPath(path string) string {
	switch path {
	case "/metrics", "/health", "/progress":
		return path
	default:
		return "other"
	}
}

// HTTPMiddleware returns middleware that instruments HTTP requests
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			written:        false,
		}

		// Call next handler
		next.ServeHTTP(rw, r)

		statusCode := strconv.Itoa(rw.statusCode)
		RecordHTTPRequest(r.Method, boundedPath(r.URL.Path), statusCode)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("status", statusCode).
			Dur("duration", time.Since(start)).
			Msg("Metrics server request")
	})
}
