package httpx

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/internal/metrics"
)

var nsSeq uint64

func testCollector() *metrics.Collector {
	n := atomic.AddUint64(&nsSeq, 1)
	return metrics.NewCollector("httpx_test_"+strings.Repeat("x", int(n)), zap.NewNop())
}

func TestDefaultTLSConfig(t *testing.T) {
	cfg := DefaultTLSConfig()
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.NotEmpty(t, cfg.CipherSuites)
}

func TestSecureTransport(t *testing.T) {
	tr := SecureTransport()
	require.NotNil(t, tr.TLSClientConfig)
	assert.True(t, tr.ForceAttemptHTTP2)
	assert.NotNil(t, tr.Proxy)
}

func TestNewClient_PassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi-bin/token", r.URL.Path)
		_, _ = io.WriteString(w, `{"access_token":"tok"}`)
	}))
	defer srv.Close()

	client := NewClient(Options{
		Timeout: 5 * time.Second,
		Metrics: testCollector(),
		Logger:  zap.NewNop(),
		Base:    http.DefaultTransport,
	})
	assert.Equal(t, 5*time.Second, client.Timeout)

	resp, err := client.Get(srv.URL + "/cgi-bin/token?access_token=secret")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"access_token":"tok"}`, string(body))
}

func TestNewClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client := NewClient(Options{Base: http.DefaultTransport})
	_, err := client.Get(addr)
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	u, err := url.Parse("https://api.weixin.qq.com/cgi-bin/token?grant_type=client_credential&appid=wx1&secret=s")
	require.NoError(t, err)

	out := RedactURL(u)
	assert.NotContains(t, out, "secret=s")
	assert.NotContains(t, out, "appid=wx1")
	assert.Contains(t, out, "grant_type=client_credential")

	plain, _ := url.Parse("https://example.com/a?b=c")
	assert.Equal(t, "https://example.com/a?b=c", RedactURL(plain))
	assert.Equal(t, "", RedactURL(nil))
}
