package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"texdb/internal/logging"
)

// AccessLogConfig controls which requests are written to the access log.
type AccessLogConfig struct {
	// Quiet lists paths that are never logged.
	Quiet []string
}

// DefaultAccessLogConfig keeps probes and scrapes out of the log.
func DefaultAccessLogConfig() AccessLogConfig {
	return AccessLogConfig{Quiet: []string{"/healthz", "/metrics"}}
}

// AccessLog writes one key=value line per request through the leveled
// logger. Server errors are logged as warnings.
func AccessLog(config AccessLogConfig) func(http.Handler) http.Handler {
	quiet := make(map[string]bool, len(config.Quiet))
	for _, p := range config.Quiet {
		quiet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quiet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			rw := newResponseWriter(w)
			began := time.Now()
			next.ServeHTTP(rw, r)

			line := accessLine(r, rw, time.Since(began))
			if rw.statusCode >= http.StatusInternalServerError {
				logging.Warn("%s", line)
			} else {
				logging.Info("%s", line)
			}
		})
	}
}

func accessLine(r *http.Request, rw *responseWriter, took time.Duration) string {
	fields := []string{
		"method=" + r.Method,
		"route=" + routeTemplate(r),
		"path=" + quoteField(r.URL.Path),
	}
	if r.URL.RawQuery != "" {
		fields = append(fields, "query="+quoteField(r.URL.RawQuery))
	}
	fields = append(fields,
		"status="+strconv.Itoa(rw.statusCode),
		"bytes="+strconv.FormatInt(rw.bytesWritten, 10),
		"ms="+strconv.FormatInt(took.Milliseconds(), 10),
		"remote="+quoteField(remoteHost(r)),
	)
	if ua := r.UserAgent(); ua != "" {
		fields = append(fields, "agent="+quoteField(ua))
	}
	return "http " + strings.Join(fields, " ")
}

// quoteField strips control characters from request data and quotes the
// result when it contains spaces or quotes, so one request is one line.
func quoteField(s string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
	if clean == "" {
		return "-"
	}
	if strings.ContainsAny(clean, ` "`) {
		return strconv.Quote(clean)
	}
	return clean
}

// remoteHost prefers the first proxy-reported client address.
func remoteHost(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
