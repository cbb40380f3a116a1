// cmd/web/main.go
//
// Loft – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load layered config (conf/global.yaml + LOFT_ env overrides) and
//     resolve any vault: secret references.
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Open the control-plane DB and ensure the schema exists.
//
//  5. Assemble the host resolver (cache + singleflight), the domain
//     binding engine, and the publish pipeline, wired so binding changes
//     invalidate the resolver cache immediately.
//
//  6. Build the root handler and wrap it with ForceHTTPS middleware so
//     every non-localhost HTTP request is 308-redirected to HTTPS.
//
//  7. Root-handler flow:
//
//     • host resolution         – resolver.Resolve(r.Host)
//     • platform host           – /metrics, /healthz, /api/… (bearer auth)
//     • site host               – published content → FindPage → render
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/loft/internal/api"
	"github.com/yanizio/loft/internal/config"
	"github.com/yanizio/loft/internal/database"
	"github.com/yanizio/loft/internal/domain"
	"github.com/yanizio/loft/internal/logger"
	"github.com/yanizio/loft/internal/middleware"
	"github.com/yanizio/loft/internal/publish"
	"github.com/yanizio/loft/internal/requestinfo"
	"github.com/yanizio/loft/internal/resolver"
	"github.com/yanizio/loft/internal/site"
	"github.com/yanizio/loft/internal/vault"
)

const serverEnvPath = "/usr/local/etc/loft/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Secrets ─────────────────────────────────────────────────────
	//
	if strings.HasPrefix(cfg.Database.Password, "vault:") {
		vc, err := vault.New(ctx, logOut.Infof)
		if err != nil {
			logOut.Fatalf("connect vault: %v", err)
		}
		if err := config.ResolveSecrets(ctx, vc); err != nil {
			logOut.Fatalf("resolve secrets: %v", err)
		}
		cfg = config.Get()
	}

	//
	// ── 2.  Control-plane DB ────────────────────────────────────────────
	//
	dsn := strings.ReplaceAll(cfg.Database.DSN, "{password}", cfg.Database.Password)
	logOut.Info("connecting to control-plane DB …")
	db, err := database.Open(dsn)
	if err != nil {
		logOut.Fatalf("connect DB: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(db); err != nil {
		logOut.Fatalf("ensure schema: %v", err)
	}
	logOut.Info("control-plane DB online")

	// Log site count as an early sanity check.
	var total int
	_ = db.Get(&total, `SELECT COUNT(*) FROM site`)
	logOut.Infof("%d site(s) found", total)

	//
	// ── 3.  Resolver, binding engine, publish pipeline ──────────────────
	//
	domains := domain.NewSQLStore(db)
	sites := domain.NewSQLSites(db)

	cache := resolver.NewHostCache(
		time.Duration(cfg.Resolver.CacheTTLSeconds)*time.Second,
		time.Duration(cfg.Resolver.NegativeTTLSeconds)*time.Second,
	)
	go cache.EvictLoop(ctx, resolver.EvictInterval)
	res := resolver.New(cfg.Builder.CanonicalHost, cfg.Builder.InfraIPs, domains,
		func(ctx context.Context, siteID string) (bool, error) {
			return site.Exists(ctx, db, siteID)
		},
		cache,
	)

	engine := domain.New(domains, sites, &domain.NetLookuper{},
		cfg.Builder.CanonicalHost,
		time.Duration(cfg.DNS.VerifyTimeoutSeconds)*time.Second,
		cache.Invalidate,
	)

	var reval publish.Revalidator
	if cfg.Publish.RevalidateURL != "" {
		reval = publish.HTTPRevalidator{
			URL:     cfg.Publish.RevalidateURL,
			Timeout: time.Duration(cfg.Publish.RevalidateTimeoutSeconds) * time.Second,
		}
	}
	pipeline := publish.New(db, engine, reval)

	if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
		logOut.Warnf("geo database unavailable: %v", err)
	}

	//
	// ── 4.  Platform mux ────────────────────────────────────────────────
	//
	auth := api.StaticAuthorizer(os.Getenv("LOFT_API_TOKEN"), "admin")
	platform := chi.NewRouter()
	platform.Use(requestinfo.Enrich)
	platform.Handle("/metrics", promhttp.Handler())
	platform.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	platform.Mount("/api", api.New(db, engine, domains, pipeline, auth).Routes())

	serve := newSiteHandler(db)
	platform.Get("/preview/{siteID}", serve.Preview)
	platform.Get("/preview/{siteID}/*", serve.Preview)

	//
	// ── 5.  Root handler: resolve host, then dispatch ───────────────────
	//
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resn, err := res.Resolve(r.Context(), r.Host)
		if err != nil {
			if errors.Is(err, resolver.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			logOut.Errorw("resolve host", "host", r.Host, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if resn.Kind == resolver.KindPlatform {
			platform.ServeHTTP(w, r)
			return
		}
		serve.ServeHTTP(w, r.WithContext(withSiteID(r.Context(), resn.SiteID)))
	})

	handler := http.Handler(root)
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(res, handler)
	}

	logOut.Infof("listening on %s", cfg.HTTP.ListenAddr)
	if err := http.ListenAndServe(cfg.HTTP.ListenAddr, handler); err != nil {
		logOut.Fatalf("listen: %v", err)
	}
}
