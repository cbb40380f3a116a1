// internal/database/schema.go
//
// Bootstrap DDL for the control-plane tables.  Applied in order by
// EnsureSchema during startup; every statement is idempotent so repeated
// boots are safe without a migration tool.
package database

import "github.com/jmoiron/sqlx"

const templateSchemaSQL = `
CREATE TABLE IF NOT EXISTS template (
    id           VARCHAR(36)  NOT NULL,
    name         VARCHAR(190) NOT NULL,
    version      VARCHAR(32)  NOT NULL,
    description  TEXT,
    category     VARCHAR(64),
    config       JSON         NOT NULL,
    changelog    JSON,
    active       TINYINT(1)   NOT NULL DEFAULT 1,
    created_at   TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
                 ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id)
);`

const siteSchemaSQL = `
CREATE TABLE IF NOT EXISTS site (
    id                VARCHAR(36)  NOT NULL,
    site_id           VARCHAR(63)  NOT NULL,
    template_id       VARCHAR(36)  NOT NULL,
    template_version  VARCHAR(32)  NOT NULL,
    name              VARCHAR(190) NOT NULL,
    draft_content     JSON         NOT NULL,
    published_content JSON,
    deployment_status VARCHAR(16)  NOT NULL DEFAULT 'draft',
    custom_domain     VARCHAR(255),
    domain_verified   TINYINT(1)   NOT NULL DEFAULT 0,
    published_at      TIMESTAMP    NULL,
    created_at        TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
                      ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uq_site_site_id (site_id)
);`

// The UNIQUE KEY on domain.domain is the uniqueness invariant for custom
// domains: two concurrent claims race on this index and exactly one wins.
const domainSchemaSQL = `
CREATE TABLE IF NOT EXISTS domain (
    id                 VARCHAR(36)  NOT NULL,
    domain             VARCHAR(255) NOT NULL,
    site_id            VARCHAR(63)  NOT NULL,
    verification_token CHAR(32)     NOT NULL,
    verified           TINYINT(1)   NOT NULL DEFAULT 0,
    verified_at        TIMESTAMP    NULL,
    created_at         TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uq_domain_domain (domain),
    KEY idx_domain_site_id (site_id)
);`

// EnsureSchema creates any missing control-plane tables.
func EnsureSchema(db *sqlx.DB) error {
	for _, ddl := range []string{templateSchemaSQL, siteSchemaSQL, domainSchemaSQL} {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}
