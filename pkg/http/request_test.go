package http_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkghttp "github.com/rinniizz/crudapi/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClientIP(t *testing.T) {
	internal := pkghttp.NewIPConfig([]string{"10.0.0.0/8", "2001:db8::/32"})

	tests := []struct {
		name       string
		config     *pkghttp.IPConfig
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct peer ignores spoofed headers", internal, "203.0.113.10:54321", "1.2.3.4", "5.6.7.8", "203.0.113.10"},
		{"trusted proxy uses first forwarded ip", internal, "10.0.0.5:54321", "203.0.113.42, 10.0.0.1", "", "203.0.113.42"},
		{"trusted proxy skips garbage entries", internal, "10.0.0.5:1", "not-an-ip, 198.51.100.7", "", "198.51.100.7"},
		{"trusted proxy falls back to real ip header", internal, "10.0.0.5:1", "", "198.51.100.9", "198.51.100.9"},
		{"ipv6 trusted proxy", internal, "[2001:db8::1]:443", "203.0.113.5", "", "203.0.113.5"},
		{"nil config", nil, "203.0.113.10:1", "1.2.3.4", "", "203.0.113.10"},
		{"invalid cidr trusts nothing", pkghttp.NewIPConfig([]string{"nonsense"}), "10.0.0.5:1", "1.2.3.4", "", "10.0.0.5"},
		{"remote addr without port", nil, "203.0.113.10", "", "", "203.0.113.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			assert.Equal(t, tt.want, pkghttp.ExtractClientIP(req, tt.config))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com"}`))
		var p payload
		require.NoError(t, pkghttp.DecodeJSON(httptest.NewRecorder(), req, &p))
		assert.Equal(t, "a@b.com", p.Email)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))
		var p payload
		assert.EqualError(t, pkghttp.DecodeJSON(httptest.NewRecorder(), req, &p), "request body is empty")
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))
		var p payload
		assert.EqualError(t, pkghttp.DecodeJSON(httptest.NewRecorder(), req, &p), "request body is not valid JSON")
	})

	t.Run("trailing object", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com"}{"email":"c@d.com"}`))
		var p payload
		assert.Error(t, pkghttp.DecodeJSON(httptest.NewRecorder(), req, &p))
	})
}
