package observability

import (
	"io"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProjectReadsTotal counts project file reads by result
	ProjectReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosln_project_reads_total",
			Help: "Total number of project file reads by result",
		},
		[]string{"result"}, // success, failure
	)

	// ProjectReadDuration tracks project file read duration in seconds
	ProjectReadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gosln_project_read_duration_seconds",
			Help:    "Project file read duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to 1.6s
		},
	)

	// CacheHitsTotal counts cache hits by cache name
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosln_cache_hits_total",
			Help: "Total number of cache hits by cache",
		},
		[]string{"cache"}, // project, dependencies
	)

	// CacheMissesTotal counts cache misses by cache name
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosln_cache_misses_total",
			Help: "Total number of cache misses by cache",
		},
		[]string{"cache"},
	)

	// DependencyCyclesTotal counts circular project references found
	DependencyCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gosln_dependency_cycles_total",
			Help: "Total number of circular project references found",
		},
	)

	// BuildDuration tracks solution build duration in seconds
	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gosln_build_duration_seconds",
			Help:    "Solution build duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to 16s
		},
		[]string{"result"},
	)

	// BuildIssuesTotal counts build issues by level
	BuildIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosln_build_issues_total",
			Help: "Total number of issues reported by level",
		},
		[]string{"level"}, // warning, error
	)

	// SolutionChangesTotal counts solution changes by change and object type
	SolutionChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosln_solution_changes_total",
			Help: "Total number of solution changes by change and object type",
		},
		[]string{"change", "object"},
	)
)

// DumpMetrics writes every gathered gosln metric to w in the Prometheus text
// exposition format.
func DumpMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}

	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "gosln_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// GetCounterValue retrieves the current value of a counter metric with the given labels
// This is primarily intended for testing
func GetCounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	metric, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	// Write metric to a DTO to read its value
	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}

	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}

	return 0, nil
}
