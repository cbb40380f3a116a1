// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/yanizio/loft/internal/resolver"
)

// ForceHTTPS wraps h.  If the request is plain HTTP, the host is not
// “localhost”, and the resolver confirms the host maps to something we
// serve, the wrapper issues a 308 Permanent Redirect to the HTTPS version
// of the same URL.  Otherwise it calls the next handler unchanged.
func ForceHTTPS(res *resolver.Resolver, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Already HTTPS or dev host → continue.
		if r.TLS != nil || stripPort(r.Host) == "localhost" {
			h.ServeHTTP(w, r)
			return
		}

		// Only redirect hosts we actually answer for.
		if _, err := res.Resolve(r.Context(), r.Host); err == nil {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}

		// Unknown host → keep normal flow (404 later).
		h.ServeHTTP(w, r)
	})
}

// stripPort removes the :port suffix from Host when present.  IPv6 hosts
// arrive bracketed ("[::1]:8080") or as bare literals; neither form gets
// truncated at its first colon.
func stripPort(h string) string {
	if strings.HasPrefix(h, "[") {
		if i := strings.IndexByte(h, ']'); i != -1 {
			return h[1:i]
		}
		return h
	}
	if i := strings.IndexByte(h, ':'); i != -1 {
		if strings.LastIndexByte(h, ':') != i {
			return h
		}
		return h[:i]
	}
	return h
}
