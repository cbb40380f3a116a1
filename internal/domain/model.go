package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Record mirrors one row in the persistent `domain` table.  The `domain`
// column stores the normalized form and carries a uniqueness constraint:
// at most one row may exist per normalized domain string, so ownership is
// exclusive by construction.
type Record struct {
	ID                string     `db:"id"                 json:"id"`
	Domain            string     `db:"domain"             json:"domain"`
	SiteID            string     `db:"site_id"            json:"siteId"`
	VerificationToken string     `db:"verification_token" json:"verificationToken"`
	Verified          bool       `db:"verified"           json:"verified"`
	VerifiedAt        *time.Time `db:"verified_at"        json:"verifiedAt"`
	CreatedAt         time.Time  `db:"created_at"         json:"createdAt"`
}

// DNSRecord is one instruction the domain owner must publish.
type DNSRecord struct {
	Type  string `json:"type"` // TXT or CNAME
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SetupInfo is returned to the caller after a successful binding request:
// the record identity plus the DNS records to publish before Verify can
// succeed.
type SetupInfo struct {
	DomainID          string      `json:"domainId"`
	Domain            string      `json:"domain"`
	VerificationToken string      `json:"verificationToken"`
	DNSInstructions   []DNSRecord `json:"dnsInstructions"`
}

// newToken returns a fresh 32-hex-char verification token.
func newToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the process has bigger problems.
		panic("domain: crypto/rand: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
