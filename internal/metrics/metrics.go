// Package metrics holds Prometheus instruments that are used across the
// platform.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ResolverLookupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_lookup_total",
			Help: "Host resolutions by outcome (platform, subdomain, custom, miss).",
		}, []string{"outcome"})

	ResolverCacheHitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resolver_cache_hit_total",
			Help: "Custom-domain resolutions served from the TTL cache.",
		})

	ResolverCacheMissTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resolver_cache_miss_total",
			Help: "Custom-domain resolutions that required a store lookup.",
		})

	DomainBindTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "domain_bind_total",
			Help: "Cumulative number of successful domain binding requests.",
		})

	DomainVerifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_verify_total",
			Help: "Domain verification attempts by result (ok, failed).",
		}, []string{"result"})

	DomainReassignTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "domain_reassign_total",
			Help: "Cumulative number of unlink-and-reassign operations.",
		})

	PublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_total",
			Help: "Publish attempts by result (ok, collision, failed).",
		}, []string{"result"})

	AutosaveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autosave_total",
			Help: "Editor autosaves by result (ok, failed).",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ResolverLookupTotal,
		ResolverCacheHitTotal,
		ResolverCacheMissTotal,
		DomainBindTotal,
		DomainVerifyTotal,
		DomainReassignTotal,
		PublishTotal,
		AutosaveTotal,
	)
}
