// internal/site/slug_test.go
//
// Unit-tests for site-ID generation.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package site

import (
	"strings"
	"testing"
)

func TestMakeSiteID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Acme Landing", "acme-landing"},
		{"  Hello,   World!  ", "hello-world"},
		{"CAFÉ déjà vu", "caf-d-j-vu"},
		{"--already--kebab--", "already-kebab"},
		{"100% Natural", "100-natural"},
		{"🎉🎉🎉", "site"},
		{"", "site"},
	}
	for _, c := range cases {
		if got := MakeSiteID(c.in); got != c.want {
			t.Errorf("MakeSiteID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMakeSiteIDCapsLabelLength(t *testing.T) {
	got := MakeSiteID(strings.Repeat("a", 100))
	if len(got) != 63 {
		t.Errorf("len = %d, want 63", len(got))
	}
}

func TestWithRandomSuffix(t *testing.T) {
	a := WithRandomSuffix("acme-landing")
	b := WithRandomSuffix("acme-landing")
	if !strings.HasPrefix(a, "acme-landing-") {
		t.Errorf("suffix form = %q", a)
	}
	if a == b {
		t.Error("two suffixes collided; suffix is not random")
	}

	long := WithRandomSuffix(strings.Repeat("a", 63))
	if len(long) > 63 {
		t.Errorf("suffixed label is %d chars, over the DNS cap", len(long))
	}
}
