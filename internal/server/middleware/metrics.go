package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
)

// unknownRoute labels requests outside the registered routes.
const unknownRoute = "other"

// statusRecorder remembers the first status code written.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Flush keeps SSE and streamed MCP responses flowing.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetrics records request count and duration per method, route and
// status. The route label is the longest registered route that prefixes the
// request path, or "other", so session ids and probing clients cannot grow
// the label set. A nil or disabled provider makes this a passthrough.
func HTTPMetrics(provider *instrumentation.Provider, routes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if provider == nil || !provider.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			provider.Metrics().RecordHTTPRequest(r.Context(), r.Method, routeLabel(r.URL.Path, routes), rec.status, time.Since(start))
		})
	}
}

func routeLabel(path string, routes []string) string {
	best := ""
	for _, route := range routes {
		if route == "" || len(route) <= len(best) {
			continue
		}
		if path == route || strings.HasPrefix(path, strings.TrimSuffix(route, "/")+"/") {
			best = route
		}
	}
	if best == "" {
		return unknownRoute
	}
	return best
}
