package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name       string
		trusted    []netip.Prefix
		remoteAddr string
		headers    map[string]string
		wantAddr   string
		wantProto  string
	}{
		{
			name:       "no trusted networks ignores X-Real-IP",
			remoteAddr: "203.0.113.9:41000",
			headers:    map[string]string{"X-Real-IP": "1.1.1.1"},
			wantAddr:   "203.0.113.9:41000",
		},
		{
			name:       "untrusted peer ignores X-Forwarded-For and True-Client-IP",
			trusted:    trusted,
			remoteAddr: "203.0.113.9:41000",
			headers: map[string]string{
				"X-Forwarded-For": "2.2.2.2",
				"True-Client-IP":  "3.3.3.3",
			},
			wantAddr: "203.0.113.9:41000",
		},
		{
			name:       "untrusted peer loses X-Forwarded-Proto",
			trusted:    trusted,
			remoteAddr: "203.0.113.9:41000",
			headers:    map[string]string{"X-Forwarded-Proto": "https"},
			wantAddr:   "203.0.113.9:41000",
			wantProto:  "",
		},
		{
			name:       "trusted peer sets client address",
			trusted:    trusted,
			remoteAddr: "10.1.2.3:5000",
			headers: map[string]string{
				"X-Real-IP":         "198.51.100.4",
				"X-Forwarded-Proto": "https",
			},
			wantAddr:  "198.51.100.4",
			wantProto: "https",
		},
		{
			name:       "trusted peer without headers keeps RemoteAddr",
			trusted:    trusted,
			remoteAddr: "10.1.2.3:5000",
			wantAddr:   "10.1.2.3:5000",
		},
		{
			name:       "single address entry",
			trusted:    []netip.Prefix{netip.MustParsePrefix("192.0.2.10/32")},
			remoteAddr: "192.0.2.10:443",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			wantAddr:   "198.51.100.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAddr, gotProto string
			handler := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAddr = r.RemoteAddr
				gotProto = r.Header.Get("X-Forwarded-Proto")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/recipes/", nil)
			req.RemoteAddr = tt.remoteAddr
			for name, value := range tt.headers {
				req.Header.Set(name, value)
			}

			handler.ServeHTTP(httptest.NewRecorder(), req)

			if gotAddr != tt.wantAddr {
				t.Errorf("RemoteAddr = %q, want %q", gotAddr, tt.wantAddr)
			}
			if gotProto != tt.wantProto {
				t.Errorf("X-Forwarded-Proto = %q, want %q", gotProto, tt.wantProto)
			}
		})
	}
}
