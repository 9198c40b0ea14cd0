package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texdb/internal/logging"
	"texdb/internal/metrics"
)

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)
	assert.Equal(t, http.StatusOK, rw.statusCode)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	n, err := rw.Write([]byte("missing"))
	require.NoError(t, err)

	assert.Equal(t, 7, n)
	assert.Equal(t, http.StatusNotFound, rw.statusCode)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, 7, rw.bytesWritten)
}

func TestQuoteField(t *testing.T) {
	tests := map[string]string{
		"":                 "-",
		"plain":            "plain",
		"a\nb":             `"a b"`,
		"esc\x1b[31mred":   "esc[31mred",
		"nul\x00byte\x7f!": "nulbyte!",
		`say "hi"`:         `"say \"hi\""`,
	}
	for in, want := range tests {
		assert.Equal(t, want, quoteField(in), "input %q", in)
	}
}

func TestRemoteHost(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", remoteHost(r))

	r.RemoteAddr = "[::1]:5555"
	assert.Equal(t, "::1", remoteHost(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", remoteHost(r))

	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", remoteHost(r))
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	log.SetFlags(0)
	defer logging.SetOutput(os.Stderr)
	defer log.SetFlags(log.LstdFlags)

	r := mux.NewRouter()
	r.Use(AccessLog(DefaultAccessLogConfig()))
	r.HandleFunc("/api/groups/{category}/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	})
	r.HandleFunc("/healthz", func(http.ResponseWriter, *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/groups/Icons/Play?x=1", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("User-Agent", "test agent")
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "http method=GET route=/api/groups/{category}/{name} path=/api/groups/Icons/Play query=x=1 status=418 bytes=3 ms=")
	assert.Contains(t, line, `remote=127.0.0.1 agent="test agent"`)

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())
}

func TestAccessLine(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	r.RemoteAddr = "127.0.0.1:1234"
	rw := newResponseWriter(httptest.NewRecorder())

	line := accessLine(r, rw, 1500*time.Millisecond)
	assert.Equal(t, "http method=POST route=unmatched path=/api/refresh status=200 bytes=0 ms=1500 remote=127.0.0.1", line)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/groups/{category}/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.HandleFunc("/healthz", func(http.ResponseWriter, *http.Request) {})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/groups/{category}/{name}", "404")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/groups/Icons/Play", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/groups/Icons/Stop", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(counter)-before)

	health := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200")
	before = testutil.ToFloat64(health)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, before, testutil.ToFloat64(health))
}
