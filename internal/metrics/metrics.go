// Package metrics collects Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services record through. A nil *Collector is a valid no-op.
type Recorder interface {
	RecordInvitationIssued()
	RecordInvitationRedeemed(ok bool)
	RecordInvitationRevoked()
	RecordVerifyFailure()
	RecordHTTPRequest(method string, status int, d time.Duration)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	invitationsIssued   prometheus.Counter
	invitationsRedeemed *prometheus.CounterVec
	invitationsRevoked  prometheus.Counter
	verifyFailures      prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpLatency         prometheus.Histogram
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		invitationsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamhub_invitations_issued_total",
			Help: "Invitations created.",
		}),
		invitationsRedeemed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamhub_invitations_redeemed_total",
			Help: "Redemption attempts by outcome.",
		}, []string{"outcome"}),
		invitationsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamhub_invitations_revoked_total",
			Help: "Invitations revoked.",
		}),
		verifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamhub_auth_verify_failures_total",
			Help: "Rejected bearer tokens.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamhub_http_requests_total",
			Help: "HTTP responses by method and status code.",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.invitationsIssued,
		c.invitationsRedeemed,
		c.invitationsRevoked,
		c.verifyFailures,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordInvitationIssued() {
	if c == nil {
		return
	}
	c.invitationsIssued.Inc()
}

func (c *Collector) RecordInvitationRedeemed(ok bool) {
	if c == nil {
		return
	}
	outcome := "rejected"
	if ok {
		outcome = "accepted"
	}
	c.invitationsRedeemed.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordInvitationRevoked() {
	if c == nil {
		return
	}
	c.invitationsRevoked.Inc()
}

func (c *Collector) RecordVerifyFailure() {
	if c == nil {
		return
	}
	c.verifyFailures.Inc()
}

func (c *Collector) RecordHTTPRequest(method string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpLatency.Observe(d.Seconds())
}

// Handler serves the registry for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
