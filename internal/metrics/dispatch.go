package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeNoop    = "noop"
	OutcomeDropped = "dropped"
)

// DispatchMetrics records assignment, phase, device and ingestion activity.
type DispatchMetrics struct {
	assignments     *prometheus.CounterVec
	executeDuration prometheus.Histogram
	phaseReports    *prometheus.CounterVec
	deviceCommands  *prometheus.CounterVec
	ingestion       *prometheus.CounterVec
}

// NewDispatchMetrics registers the collectors on reg. A nil registerer
// yields a recorder whose methods do nothing.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_assignments_total",
		Help: "Order to robot assignment attempts by outcome code.",
	}, []string{"outcome"})
	executeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_execute_duration_seconds",
		Help:    "Time spent selecting and assigning a robot for an order.",
		Buckets: prometheus.DefBuckets,
	})
	phaseReports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phase_reports_total",
		Help: "Phase reports received from robots.",
	}, []string{"phase", "outcome"})
	deviceCommands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "device_commands_total",
		Help: "Outbound device commands by operation and outcome.",
	}, []string{"operation", "outcome"})
	ingestion := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_messages_total",
		Help: "MQTT messages handled by the ingestion pipeline.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(assignments, executeDuration, phaseReports, deviceCommands, ingestion)
	return &DispatchMetrics{
		assignments:     assignments,
		executeDuration: executeDuration,
		phaseReports:    phaseReports,
		deviceCommands:  deviceCommands,
		ingestion:       ingestion,
	}
}

// IncAssignment counts an assign attempt; outcome is "success", "noop" or an error code.
func (m *DispatchMetrics) IncAssignment(outcome string) {
	if m == nil || m.assignments == nil {
		return
	}
	m.assignments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *DispatchMetrics) ObserveExecute(d time.Duration) {
	if m == nil || m.executeDuration == nil {
		return
	}
	m.executeDuration.Observe(d.Seconds())
}

func (m *DispatchMetrics) IncPhaseReport(phase, outcome string) {
	if m == nil || m.phaseReports == nil {
		return
	}
	m.phaseReports.WithLabelValues(normalizeLabel(phase), normalizeLabel(outcome)).Inc()
}

func (m *DispatchMetrics) IncDeviceCommand(operation, outcome string) {
	if m == nil || m.deviceCommands == nil {
		return
	}
	m.deviceCommands.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func (m *DispatchMetrics) IncIngestion(kind, outcome string) {
	if m == nil || m.ingestion == nil {
		return
	}
	m.ingestion.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
