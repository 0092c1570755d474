// Package metrics exposes plan builds and exports as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records build and export outcomes. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	builds    *prometheus.CounterVec
	duration  prometheus.Histogram
	malformed prometheus.Gauge
	warnings  prometheus.Gauge
	days      prometheus.Gauge
	events    *prometheus.GaugeVec
}

// NewRecorder registers the collectors on reg. If reg is nil, the default
// registerer is used. Collectors that are already registered are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "custodycal_plan_builds_total",
			Help: "Total number of schedule plan builds",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodycal_plan_build_duration_seconds",
			Help:    "Time spent loading inputs and building the plan",
			Buckets: prometheus.DefBuckets,
		}),
		malformed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "custodycal_malformed_rules",
			Help: "Rules skipped as malformed in the latest successful build",
		}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "custodycal_plan_warnings",
			Help: "Non-fatal input anomalies in the latest successful build",
		}),
		days: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "custodycal_plan_days",
			Help: "Days covered by the latest successful build",
		}),
		events: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "custodycal_events",
			Help: "Merged custody events in the latest export",
		}, []string{"custodian"}),
	}

	var err error
	if r.builds, err = register(reg, r.builds); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	if r.malformed, err = register(reg, r.malformed); err != nil {
		return nil, err
	}
	if r.warnings, err = register(reg, r.warnings); err != nil {
		return nil, err
	}
	if r.days, err = register(reg, r.days); err != nil {
		return nil, err
	}
	if r.events, err = register(reg, r.events); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// BuildResult summarizes one plan build.
type BuildResult struct {
	Duration  time.Duration
	Err       error
	Malformed int
	Warnings  int
	Days      int
}

// RecordBuild counts a build. Gauges only move on success, so a failed
// rebuild leaves the figures of the plan still being served.
func (r *Recorder) RecordBuild(res BuildResult) {
	if r == nil {
		return
	}
	r.duration.Observe(res.Duration.Seconds())
	if res.Err != nil {
		r.builds.WithLabelValues("error").Inc()
		return
	}
	r.builds.WithLabelValues("ok").Inc()
	r.malformed.Set(float64(res.Malformed))
	r.warnings.Set(float64(res.Warnings))
	r.days.Set(float64(res.Days))
}

// RecordEvents replaces the per-custodian event counts.
func (r *Recorder) RecordEvents(perCustodian map[string]int) {
	if r == nil {
		return
	}
	r.events.Reset()
	for who, n := range perCustodian {
		r.events.WithLabelValues(who).Set(float64(n))
	}
}
