// internal/domain/grammar.go
//
// Domain-string grammar and normalization.
//
// Rules (Validate)
// ----------------
//  1. Case-insensitive; validation runs on the lowered form.
//  2. Labels of [a-z0-9-] separated by dots, no empty labels, and no label
//     starting or ending with “-”.
//  3. At least two labels, and the final label is alphabetic with length
//     ≥ 2 (a plausible TLD, not an IP octet).
//
// Normalize lowers the string and strips one leading “www.” so apex and
// www variants compare equal; storage and uniqueness operate on the
// normalized form only.
package domain

import "strings"

// Normalize returns the canonical comparison form of a domain string.
func Normalize(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

// Validate checks the raw string against the label grammar.  It returns a
// *ValidationError describing the first violation, or nil.
func Validate(raw string) error {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimSuffix(d, ".")
	if d == "" {
		return &ValidationError{Domain: raw, Reason: "empty"}
	}
	if len(d) > 253 {
		return &ValidationError{Domain: raw, Reason: "longer than 253 characters"}
	}

	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return &ValidationError{Domain: raw, Reason: "missing top-level domain"}
	}

	for _, label := range labels {
		if label == "" {
			return &ValidationError{Domain: raw, Reason: "empty label"}
		}
		if len(label) > 63 {
			return &ValidationError{Domain: raw, Reason: "label longer than 63 characters"}
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return &ValidationError{Domain: raw, Reason: "label starts or ends with a hyphen"}
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' {
				continue
			}
			return &ValidationError{Domain: raw, Reason: "label contains invalid character"}
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return &ValidationError{Domain: raw, Reason: "top-level domain shorter than 2 characters"}
	}
	for i := 0; i < len(tld); i++ {
		if tld[i] < 'a' || tld[i] > 'z' {
			return &ValidationError{Domain: raw, Reason: "top-level domain must be alphabetic"}
		}
	}
	return nil
}
