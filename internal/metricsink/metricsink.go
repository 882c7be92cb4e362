// Package metricsink defines the metrics-reporting surface consumed by the
// miner. The real reporter (Prometheus, InfluxDB, whatever the deployment
// uses) is treated as an external collaborator; this package only fixes
// the interface and a no-op default used when none is configured and in
// tests.
package metricsink

// Sink receives counters, gauges and observations. Implementations must be
// safe for concurrent use; call sites never hold a lock while calling it.
type Sink interface {
	IncCounter(name string, delta int64, tags map[string]string)
	SetGauge(name string, value float64, tags map[string]string)
	Observe(name string, value float64, tags map[string]string)
}

type nop struct{}

// NewNop returns a Sink that discards everything.
func NewNop() Sink { return nop{} }

func (nop) IncCounter(string, int64, map[string]string)  {}
func (nop) SetGauge(string, float64, map[string]string)  {}
func (nop) Observe(string, float64, map[string]string)   {}
