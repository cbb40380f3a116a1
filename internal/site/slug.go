// internal/site/slug.go
//
// Site-ID generation.
//
// A site ID doubles as the site's subdomain label, so it must be a valid
// DNS label: ASCII a-z, 0-9, and “-”, at most 63 characters.
//
// Rules (MakeSiteID)
// ------------------
//  1. Lower-case everything.
//  2. Convert any run of non-[a-z0-9] characters to one “-”.  That strips
//     spaces, punctuation, emoji, and non-ASCII.
//  3. Collapse consecutive “-” to a single “-”.
//  4. Trim leading / trailing “-”.
//  5. If the result is empty, return "site".
//
// Callers append a random suffix on a uniqueness conflict rather than
// looping here.
package site

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// MakeSiteID converts a display name → lower-kebab DNS label.
func MakeSiteID(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastWasDash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			// any non-ASCII or punctuation becomes a single dash
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	id := strings.Trim(b.String(), "-")
	if id == "" {
		return "site"
	}
	if len(id) > 63 {
		id = id[:63]
		id = strings.TrimRight(id, "-")
	}
	return id
}

// WithRandomSuffix appends a short hex suffix, used when the plain label
// is already taken.  The result stays within the 63-character label cap.
func WithRandomSuffix(id string) string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	suffix := "-" + hex.EncodeToString(b[:])
	if len(id)+len(suffix) > 63 {
		id = id[:63-len(suffix)]
		id = strings.TrimRight(id, "-")
	}
	return id + suffix
}
