package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "untrusted source keeps remote addr",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "203.0.113.5:4000",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "203.0.113.5:4000",
		},
		{
			name:       "trusted proxy with X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4000",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "1.2.3.4",
		},
		{
			name:       "trusted proxy with X-Forwarded-For chain",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:5555",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"},
			want:       "198.51.100.7",
		},
		{
			name:       "invalid header value ignored",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:5555",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "127.0.0.1:5555",
		},
		{
			name:       "no trusted proxies",
			trusted:    nil,
			remoteAddr: "127.0.0.1:5555",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "127.0.0.1:5555",
		},
		{
			name:       "invalid trusted entry skipped",
			trusted:    []string{"bogus", "192.168.0.0/16"},
			remoteAddr: "192.168.1.1:80",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "1.2.3.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_CapturesStatusAndBytes(t *testing.T) {
	var captured *responseWriter
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*responseWriter)
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("hello"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/car/", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusCreated, captured.status)
	assert.Equal(t, 5, captured.bytes)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, "INFO", levelFor(http.StatusCreated).String())
	assert.Equal(t, "WARN", levelFor(http.StatusBadRequest).String())
	assert.Equal(t, "ERROR", levelFor(http.StatusInternalServerError).String())
}
