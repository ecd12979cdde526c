// Package metrics exposes Prometheus collectors over engine statistics.
// The collectors read a Stats snapshot at scrape time, so they add no
// bookkeeping to the engines themselves. Register them on any
// prometheus.Registerer:
//
//	reg.MustRegister(metrics.NewBatchCollector("flowq", "ingest", eng.Stats))
package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowq-io/flowq/batch"
	"github.com/flowq-io/flowq/queue"
)

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// zeroNaN maps the engines' "nothing processed yet" NaN rates to 0, which
// scrapes cleanly.
func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// BatchCollector exports a batch engine's Stats snapshot. Create one with
// NewBatchCollector.
type BatchCollector struct {
	statsFn func() batch.Stats

	depth           *prometheus.Desc
	capacity        *prometheus.Desc
	utilization     *prometheus.Desc
	succeeded       *prometheus.Desc
	failed          *prometheus.Desc
	processed       *prometheus.Desc
	successRate     *prometheus.Desc
	flushActive     *prometheus.Desc
	schedulerActive *prometheus.Desc
}

// NewBatchCollector returns a collector for one batch engine. The engine
// label distinguishes multiple engines in one namespace; pass the engine's
// Stats method as statsFn.
func NewBatchCollector(namespace, engine string, statsFn func() batch.Stats) *BatchCollector {
	labels := prometheus.Labels{"engine": engine}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "batch", name), help, nil, labels)
	}

	return &BatchCollector{
		statsFn:         statsFn,
		depth:           desc("queue_depth", "Number of items currently queued."),
		capacity:        desc("queue_capacity", "Configured queue capacity."),
		utilization:     desc("utilization_percent", "Queue depth as a percentage of capacity."),
		succeeded:       desc("items_succeeded_total", "Total items resolved successfully."),
		failed:          desc("items_failed_total", "Total items rejected with an error."),
		processed:       desc("items_processed_total", "Total items processed, successful or not."),
		successRate:     desc("success_rate_percent", "Percentage of processed items that succeeded."),
		flushActive:     desc("flush_active", "Whether a flush is in flight."),
		schedulerActive: desc("scheduler_active", "Whether the periodic flush scheduler is running."),
	}
}

// Describe implements prometheus.Collector.
func (c *BatchCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depth
	ch <- c.capacity
	ch <- c.utilization
	ch <- c.succeeded
	ch <- c.failed
	ch <- c.processed
	ch <- c.successRate
	ch <- c.flushActive
	ch <- c.schedulerActive
}

// Collect implements prometheus.Collector.
func (c *BatchCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.statsFn()
	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(s.QueueLength))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Limit))
	ch <- prometheus.MustNewConstMetric(c.utilization, prometheus.GaugeValue, s.Utilization)
	ch <- prometheus.MustNewConstMetric(c.succeeded, prometheus.CounterValue, float64(s.SuccessCount))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(s.ErrorCount))
	ch <- prometheus.MustNewConstMetric(c.processed, prometheus.CounterValue, float64(s.TotalProcessed))
	ch <- prometheus.MustNewConstMetric(c.successRate, prometheus.GaugeValue, zeroNaN(s.SuccessRate))
	ch <- prometheus.MustNewConstMetric(c.flushActive, prometheus.GaugeValue, boolGauge(s.Flushing))
	ch <- prometheus.MustNewConstMetric(c.schedulerActive, prometheus.GaugeValue, boolGauge(s.SchedulerActive))
}

// QueueCollector exports a queue engine's Stats snapshot. Create one with
// NewQueueCollector.
type QueueCollector struct {
	statsFn func() queue.Stats

	depth           *prometheus.Desc
	capacity        *prometheus.Desc
	utilization     *prometheus.Desc
	succeeded       *prometheus.Desc
	failed          *prometheus.Desc
	timedOut        *prometheus.Desc
	processed       *prometheus.Desc
	successRate     *prometheus.Desc
	timeoutRate     *prometheus.Desc
	cycleActive     *prometheus.Desc
	schedulerActive *prometheus.Desc
	paused          *prometheus.Desc
	initialized     *prometheus.Desc
}

// NewQueueCollector returns a collector for one queue engine.
func NewQueueCollector(namespace, engine string, statsFn func() queue.Stats) *QueueCollector {
	labels := prometheus.Labels{"engine": engine}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "queue", name), help, nil, labels)
	}

	return &QueueCollector{
		statsFn:         statsFn,
		depth:           desc("queue_depth", "Number of items currently queued."),
		capacity:        desc("queue_capacity", "Configured queue capacity."),
		utilization:     desc("utilization_percent", "Queue depth as a percentage of capacity."),
		succeeded:       desc("items_succeeded_total", "Total items resolved successfully."),
		failed:          desc("items_failed_total", "Total items rejected with a processing error."),
		timedOut:        desc("items_timed_out_total", "Total items rejected by a timeout."),
		processed:       desc("items_processed_total", "Total items settled, whatever the outcome."),
		successRate:     desc("success_rate_percent", "Percentage of settled items that succeeded."),
		timeoutRate:     desc("timeout_rate_percent", "Percentage of settled items that timed out."),
		cycleActive:     desc("cycle_active", "Whether a processing cycle is in flight."),
		schedulerActive: desc("scheduler_active", "Whether the cycle scheduler is running."),
		paused:          desc("paused", "Whether the engine is paused."),
		initialized:     desc("initialized", "Whether the engine is initialized."),
	}
}

// Describe implements prometheus.Collector.
func (c *QueueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depth
	ch <- c.capacity
	ch <- c.utilization
	ch <- c.succeeded
	ch <- c.failed
	ch <- c.timedOut
	ch <- c.processed
	ch <- c.successRate
	ch <- c.timeoutRate
	ch <- c.cycleActive
	ch <- c.schedulerActive
	ch <- c.paused
	ch <- c.initialized
}

// Collect implements prometheus.Collector.
func (c *QueueCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.statsFn()
	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(s.QueueLength))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Limit))
	ch <- prometheus.MustNewConstMetric(c.utilization, prometheus.GaugeValue, s.Utilization)
	ch <- prometheus.MustNewConstMetric(c.succeeded, prometheus.CounterValue, float64(s.SuccessCount))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(s.ErrorCount))
	ch <- prometheus.MustNewConstMetric(c.timedOut, prometheus.CounterValue, float64(s.TimeoutCount))
	ch <- prometheus.MustNewConstMetric(c.processed, prometheus.CounterValue, float64(s.TotalProcessed))
	ch <- prometheus.MustNewConstMetric(c.successRate, prometheus.GaugeValue, zeroNaN(s.SuccessRate))
	ch <- prometheus.MustNewConstMetric(c.timeoutRate, prometheus.GaugeValue, zeroNaN(s.TimeoutRate))
	ch <- prometheus.MustNewConstMetric(c.cycleActive, prometheus.GaugeValue, boolGauge(s.Cycling))
	ch <- prometheus.MustNewConstMetric(c.schedulerActive, prometheus.GaugeValue, boolGauge(s.SchedulerActive))
	ch <- prometheus.MustNewConstMetric(c.paused, prometheus.GaugeValue, boolGauge(s.Paused))
	ch <- prometheus.MustNewConstMetric(c.initialized, prometheus.GaugeValue, boolGauge(s.Initialized))
}
