// internal/requestinfo/middleware.go
//
// Enrich is wired in front of the site-serving handler so the access log
// for visitor traffic carries UA and geo context.  Platform and API
// routes skip it; their logs do not need crawler fingerprints.
package requestinfo

import (
	"context"
	"net/http"
	"time"
)

// Enrich parses the user agent, resolves geo hints, and stores an *Info
// on the request context.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &Info{
			UA:        parseUA(r.UserAgent()),
			Geo:       lookupGeo(r.RemoteAddr),
			Host:      r.Host,
			Path:      r.URL.Path,
			Timestamp: time.Now(),
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
