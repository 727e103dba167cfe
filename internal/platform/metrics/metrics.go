package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var runBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics holds the engine and relay metrics.
type Metrics struct {
	EngineRuns      *prometheus.CounterVec
	EngineDuration  *prometheus.HistogramVec
	TasksCreated    prometheus.Counter
	TasksReassigned prometheus.Counter
	RiskFlagged     prometheus.Counter
	RiskCleared     prometheus.Counter
	EventsRelayed   prometheus.Counter
	RelayFailures   prometheus.Counter
	SchedulerJobs   *prometheus.CounterVec
}

// New registers every metric with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EngineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscaltask_engine_runs_total",
			Help: "Engine runs by engine and outcome (ok, partial, failed, error)",
		}, []string{"engine", "outcome"}),
		EngineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fiscaltask_engine_run_duration_seconds",
			Help:    "Duration of engine runs",
			Buckets: runBuckets,
		}, []string{"engine"}),
		TasksCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "fiscaltask_tasks_created_total",
			Help: "Tasks inserted by the generation engine",
		}),
		TasksReassigned: f.NewCounter(prometheus.CounterOpts{
			Name: "fiscaltask_tasks_reassigned_total",
			Help: "Tasks moved to a successor by the reassignment engine",
		}),
		RiskFlagged: f.NewCounter(prometheus.CounterOpts{
			Name: "fiscaltask_risk_flagged_total",
			Help: "Tasks flagged as payment risk",
		}),
		RiskCleared: f.NewCounter(prometheus.CounterOpts{
			Name: "fiscaltask_risk_cleared_total",
			Help: "Tasks whose payment risk flag was cleared",
		}),
		EventsRelayed: f.NewCounter(prometheus.CounterOpts{
			Name: "fiscaltask_task_events_relayed_total",
			Help: "Task events published to the event log",
		}),
		RelayFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "fiscaltask_task_event_relay_failures_total",
			Help: "Relay batches that failed to publish",
		}),
		SchedulerJobs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscaltask_scheduler_jobs_total",
			Help: "Scheduled job executions by job and outcome",
		}, []string{"job", "outcome"}),
	}
}

// ObserveRun records one engine run. Call with time.Now() taken at the start
// of the run.
func (m *Metrics) ObserveRun(engine, outcome string, start time.Time) {
	m.EngineRuns.WithLabelValues(engine, outcome).Inc()
	m.EngineDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddTasksCreated(n int) {
	m.TasksCreated.Add(float64(n))
}

func (m *Metrics) AddTasksReassigned(n int) {
	m.TasksReassigned.Add(float64(n))
}

func (m *Metrics) AddRiskChanges(flagged, cleared int) {
	m.RiskFlagged.Add(float64(flagged))
	m.RiskCleared.Add(float64(cleared))
}

func (m *Metrics) AddEventsRelayed(n int) {
	m.EventsRelayed.Add(float64(n))
}

func (m *Metrics) IncrementRelayFailures() {
	m.RelayFailures.Inc()
}

func (m *Metrics) IncrementSchedulerJob(job, outcome string) {
	m.SchedulerJobs.WithLabelValues(job, outcome).Inc()
}
