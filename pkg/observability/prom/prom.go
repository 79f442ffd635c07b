// Package prom implements the observability hook interfaces with Prometheus
// collectors.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/bayesaudit/pkg/observability"
)

var (
	_ observability.AuditHooks      = (*Metrics)(nil)
	_ observability.CheckpointHooks = (*Metrics)(nil)
	_ observability.SourceHooks     = (*Metrics)(nil)
)

// Metrics records audit, checkpoint and source events.
type Metrics struct {
	audits          *prometheus.CounterVec
	auditDuration   prometheus.Histogram
	stages          prometheus.Counter
	stageDuration   prometheus.Histogram
	stageStability  prometheus.Gauge
	ballotsDrawn    prometheus.Gauge
	checkpointSaves *prometheus.CounterVec
	checkpointBytes prometheus.Histogram
	checkpointLoads *prometheus.CounterVec
	draws           *prometheus.CounterVec
	drawDuration    *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// to expose them through promhttp.Handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		audits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bayesaudit_audits_total",
			Help: "Completed audits by terminal status",
		}, []string{"status"}),
		auditDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bayesaudit_audit_duration_seconds",
			Help:    "Wall time of complete audits",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		stages: f.NewCounter(prometheus.CounterOpts{
			Name: "bayesaudit_stages_total",
			Help: "Audit stages evaluated",
		}),
		stageDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bayesaudit_stage_duration_seconds",
			Help:    "Time to draw a batch and run all trials of one stage",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		stageStability: f.NewGauge(prometheus.GaugeOpts{
			Name: "bayesaudit_stage_stability_ratio",
			Help: "Share of trials agreeing with the most frequent outcome in the last stage",
		}),
		ballotsDrawn: f.NewGauge(prometheus.GaugeOpts{
			Name: "bayesaudit_ballots_drawn",
			Help: "Ballots drawn so far by the running audit",
		}),
		checkpointSaves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bayesaudit_checkpoint_saves_total",
			Help: "Checkpoint writes by backend and success",
		}, []string{"backend", "ok"}),
		checkpointBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bayesaudit_checkpoint_bytes",
			Help:    "Encoded checkpoint size",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		}),
		checkpointLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bayesaudit_checkpoint_loads_total",
			Help: "Checkpoint reads by backend and hit",
		}, []string{"backend", "hit"}),
		draws: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bayesaudit_ballots_drawn_total",
			Help: "Ballots delivered by each ballot source",
		}, []string{"source"}),
		drawDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bayesaudit_draw_duration_seconds",
			Help:    "Time to draw one batch from a ballot source",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		}, []string{"source"}),
	}
}

func (m *Metrics) OnAuditStart(context.Context, string, string, uint64) {
	m.ballotsDrawn.Set(0)
}

func (m *Metrics) OnAuditComplete(_ context.Context, _ string, status string, _, _ int, d time.Duration, err error) {
	if err != nil {
		status = "error"
	}
	m.audits.WithLabelValues(status).Inc()
	m.auditDuration.Observe(d.Seconds())
}

func (m *Metrics) OnStageStart(context.Context, string, int) {}

func (m *Metrics) OnStageComplete(_ context.Context, _ string, _ int, drawn, freq, trials int, d time.Duration) {
	m.stages.Inc()
	m.stageDuration.Observe(d.Seconds())
	m.ballotsDrawn.Set(float64(drawn))
	if trials > 0 {
		m.stageStability.Set(float64(freq) / float64(trials))
	}
}

func (m *Metrics) OnCheckpointSave(_ context.Context, backend string, size int, err error) {
	m.checkpointSaves.WithLabelValues(backend, strconv.FormatBool(err == nil)).Inc()
	if err == nil {
		m.checkpointBytes.Observe(float64(size))
	}
}

func (m *Metrics) OnCheckpointLoad(_ context.Context, backend string, hit bool) {
	m.checkpointLoads.WithLabelValues(backend, strconv.FormatBool(hit)).Inc()
}

func (m *Metrics) OnDraw(_ context.Context, source string, ballots int, d time.Duration, err error) {
	if err != nil {
		return
	}
	m.draws.WithLabelValues(source).Add(float64(ballots))
	m.drawDuration.WithLabelValues(source).Observe(d.Seconds())
}
