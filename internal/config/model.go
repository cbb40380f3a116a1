// internal/config/model.go
//
// Typed configuration model for Loft.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                        – dotenv values,
//   • `conf/global.yaml`                     – primary static file,
//   • `LOFT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs—only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Durations are plain seconds (or milliseconds where noted) so the
//     YAML stays unit-free and mapstructure needs no decode hooks.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Builder section
//

// Builder identifies the platform itself on the wire.  CanonicalHost is the
// apex under which per-site subdomains hang (`acme.builder.example`), and
// InfraIPs are bare addresses load balancers probe for health checks.
type Builder struct {
	CanonicalHost string   `koanf:"canonical_host" validate:"required,hostname"`
	InfraIPs      []string `koanf:"infra_ips"      validate:"dive,ip"`
}

//
// Database section
//

// Database holds DSN templates and secrets.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host,
// port, or flags without touching Vault.  The *secret* portion
// (`Password`) is stored in Vault and injected at runtime, keeping
// credentials out of flat files and git history.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

//
// DNS section
//

// DNS tunes the external verification lookups.  VerifyTimeoutSeconds bounds
// one TXT query; verification failures are retryable, so the bound stays
// small.
type DNS struct {
	VerifyTimeoutSeconds int `koanf:"verify_timeout_seconds" validate:"min=1,max=30"`
}

//
// Resolver section
//

// Resolver controls host-lookup caching.  Negative entries (unmapped
// hosts) expire faster than positive ones so a freshly verified domain
// starts routing within NegativeTTLSeconds.
type Resolver struct {
	CacheTTLSeconds    int `koanf:"cache_ttl_seconds"    validate:"min=1"`
	NegativeTTLSeconds int `koanf:"negative_ttl_seconds" validate:"min=1"`
}

//
// Editor section
//

// Editor holds session tunables.  The debounce is the quiet period after
// the last draft mutation before an autosave fires.
type Editor struct {
	AutosaveDebounceMillis int `koanf:"autosave_debounce_millis" validate:"min=100"`
}

//
// Publish section
//

// Publish configures the downstream revalidation signal.  An empty URL
// selects the log-only notifier, which is the right default for dev.
type Publish struct {
	RevalidateURL            string `koanf:"revalidate_url" validate:"omitempty,url"`
	RevalidateTimeoutSeconds int    `koanf:"revalidate_timeout_seconds" validate:"min=1,max=60"`
}

//
// Geo section
//

// Geo points at an optional GeoLite2-City database for access-log
// enrichment.  Empty path disables geo lookups entirely.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or LOFT_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // LOFT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Builder  Builder  `koanf:"builder"`
	Database Database `koanf:"database"`
	DNS      DNS      `koanf:"dns"`
	Resolver Resolver `koanf:"resolver"`
	Editor   Editor   `koanf:"editor"`
	Publish  Publish  `koanf:"publish"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
