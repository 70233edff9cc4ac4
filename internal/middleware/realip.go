package middleware

import (
	"net"
	"net/http"
	"net/netip"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// clientAddrHeaders are rewritten by chi's RealIP or read by the proxy.
// Only trusted peers may set them.
var clientAddrHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-Proto"}

// TrustedRealIP applies chi's RealIP to requests whose peer address is in
// one of the trusted networks. Requests from any other peer keep their
// RemoteAddr and have client-address headers removed, so they cannot
// choose their rate limit key or the address the backend sees.
//
// X-Forwarded-For is left in place; the proxy appends the peer to it.
func TrustedRealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		realIP := chimiddleware.RealIP(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if peerTrusted(r.RemoteAddr, trusted) {
				realIP.ServeHTTP(w, r)
				return
			}
			for _, name := range clientAddrHeaders {
				r.Header.Del(name)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func peerTrusted(remoteAddr string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
