package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Provider interface {
	IncApproved()
	IncRejected()
	IncStatsServed()
	IncStatsDenied()
	IncStoreFaults()
}

type provider struct {
	approved    prometheus.Counter
	rejected    prometheus.Counter
	statsServed prometheus.Counter
	statsDenied prometheus.Counter
	storeFaults prometheus.Counter
}

func New(enabled bool) Provider {
	if !enabled {
		return noop{}
	}
	return &provider{
		approved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_approvals_total",
			Help: "Join requests approved",
		}),
		rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_rejections_total",
			Help: "Join requests rejected by rule",
		}),
		statsServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_stats_served_total",
			Help: "Stats commands answered",
		}),
		statsDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_stats_denied_total",
			Help: "Stats commands denied by the admin allowlist",
		}),
		storeFaults: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_store_faults_total",
			Help: "Event store append or read failures",
		}),
	}
}

func (p *provider) IncApproved()    { p.approved.Inc() }
func (p *provider) IncRejected()    { p.rejected.Inc() }
func (p *provider) IncStatsServed() { p.statsServed.Inc() }
func (p *provider) IncStatsDenied() { p.statsDenied.Inc() }
func (p *provider) IncStoreFaults() { p.storeFaults.Inc() }

type noop struct{}

func (noop) IncApproved()    {}
func (noop) IncRejected()    {}
func (noop) IncStatsServed() {}
func (noop) IncStatsDenied() {}
func (noop) IncStoreFaults() {}
