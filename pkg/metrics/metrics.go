package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	devbrief = "devbrief"

	// Dispatch metrics
	jobsDispatchedTotal = "jobs_dispatched_total"

	// Processor metrics
	messagesProcessedTotal  = "messages_processed_total"
	messagesDeadLetterTotal = "messages_dead_letter_total"

	// Labels
	jobTypeLabel   = "job_type"
	processorLabel = "processor"
	outcomeLabel   = "outcome"
)

// Outcome label values used by the processors.
const (
	OutcomeProcessed = "processed"
	OutcomeRequeued  = "requeued"
	OutcomeDropped   = "dropped"
)

/**
* Metrics definition
**/
var jobsDispatchedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: devbrief,
		Name:      jobsDispatchedTotal,
		Help:      "number of jobs accepted by the dispatch gateway",
	},
	[]string{jobTypeLabel},
)

var messagesProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: devbrief,
		Name:      messagesProcessedTotal,
		Help:      "number of result messages handled, partitioned by processor and outcome",
	},
	[]string{processorLabel, outcomeLabel},
)

var messagesDeadLetterTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: devbrief,
		Name:      messagesDeadLetterTotal,
		Help:      "number of messages routed to the dead-letter queue",
	},
	[]string{processorLabel},
)

func IncreaseJobsDispatchedMetric(jobType string) {
	jobsDispatchedTotalMetric.With(prometheus.Labels{jobTypeLabel: jobType}).Inc()
}

func IncreaseMessagesProcessedMetric(processor, outcome string) {
	messagesProcessedTotalMetric.With(prometheus.Labels{
		processorLabel: processor,
		outcomeLabel:   outcome,
	}).Inc()
}

func IncreaseDeadLetterMetric(processor string) {
	messagesDeadLetterTotalMetric.With(prometheus.Labels{processorLabel: processor}).Inc()
}

func RegisterMetrics() {
	prometheus.MustRegister(jobsDispatchedTotalMetric)
	prometheus.MustRegister(messagesProcessedTotalMetric)
	prometheus.MustRegister(messagesDeadLetterTotalMetric)
}
