package metrics

import "github.com/prometheus/client_golang/prometheus"

// Decision outcomes.
const (
	OutcomeAllow           = "allow"
	OutcomeDeny            = "deny"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeError           = "error"
)

// AuthzMetrics counts gate decisions and permission cache lookups. A nil
// *AuthzMetrics records nothing.
type AuthzMetrics struct {
	decisions          *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
}

func NewAuthzMetrics(reg prometheus.Registerer) *AuthzMetrics {
	m := &AuthzMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "school_authz_decisions_total",
				Help: "Authorization decisions by check and outcome.",
			},
			[]string{"check", "outcome"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "school_permission_cache_lookups_total",
				Help: "Effective-permission cache lookups by result.",
			},
			[]string{"result"},
		),
		cacheInvalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "school_permission_cache_invalidations_total",
				Help: "Effective-permission cache invalidations by scope and result.",
			},
			[]string{"scope", "result"},
		),
	}
	reg.MustRegister(m.decisions, m.cacheLookups, m.cacheInvalidations)
	return m
}

func (m *AuthzMetrics) RecordDecision(check, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(check, outcome).Inc()
}

// RecordCacheLookup takes "hit", "miss" or "error".
func (m *AuthzMetrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheInvalidation takes scope "user" or "all" and result "ok",
// "retried" or "failed". A failed invalidation leaves entries stale until TTL.
func (m *AuthzMetrics) RecordCacheInvalidation(scope, result string) {
	if m == nil {
		return
	}
	m.cacheInvalidations.WithLabelValues(scope, result).Inc()
}
