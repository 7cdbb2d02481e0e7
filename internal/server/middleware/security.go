package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// SecurityHeadersConfig selects the optional security headers.
type SecurityHeadersConfig struct {
	// EnableHSTS sends Strict-Transport-Security on plain HTTP too, for
	// deployments behind a TLS terminating proxy.
	EnableHSTS bool

	// EnableCrossOriginIsolation sets COOP=same-origin, COEP=require-corp
	// and CORP=same-origin.
	EnableCrossOriginIsolation bool
}

var baseSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"},
	{"Permissions-Policy", "camera=(), geolocation=(), microphone=(), usb=()"},
}

var isolationHeaders = [][2]string{
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Embedder-Policy", "require-corp"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
}

const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders sets hardening headers on every response. The MCP endpoints
// only return JSON and event streams, so the content policy denies everything.
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range baseSecurityHeaders {
				h.Set(kv[0], kv[1])
			}
			if r.TLS != nil || config.EnableHSTS {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			if config.EnableCrossOriginIsolation {
				for _, kv := range isolationHeaders {
					h.Set(kv[0], kv[1])
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS answers preflight requests and echoes the Origin header back when it
// is one of allowedOrigins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if origin := r.Header.Get("Origin"); origin != "" && slices.Contains(allowedOrigins, origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Mcp-Session-Id, Mcp-Protocol-Version, Last-Event-ID")
			h.Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
			h.Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ValidateAllowedOrigins parses a comma separated origin list and returns
// each origin as scheme://host[:port]. Empty entries are skipped.
func ValidateAllowedOrigins(originsEnv string) ([]string, error) {
	var origins []string
	for _, raw := range strings.Split(originsEnv, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		switch {
		case err != nil:
			return nil, fmt.Errorf("invalid origin URL %q: %w", raw, err)
		case u.Scheme == "" || u.Host == "":
			return nil, fmt.Errorf("origin %q must include scheme and host (e.g., https://example.com)", raw)
		case u.Scheme != "http" && u.Scheme != "https":
			return nil, fmt.Errorf("origin %q must use http or https scheme", raw)
		case u.Path != "" && u.Path != "/":
			return nil, fmt.Errorf("origin %q should not include path", raw)
		}
		origins = append(origins, u.Scheme+"://"+u.Host)
	}
	return origins, nil
}

// MaxRequestSize limits request bodies to maxBytes. Reads past the limit
// fail, and the handler is expected to answer 413. A value of zero or less
// disables the limit.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
