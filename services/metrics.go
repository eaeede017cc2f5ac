package services

import (
	"time"

	"road-risk-api/risk"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeComplete   = "complete"
	outcomeIncomplete = "incomplete"
	outcomeError      = "error"
)

var (
	classifierCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "madlysafe_classifier_calls_total",
		Help: "Total number of classifier probability evaluations.",
	})
	classifierFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "madlysafe_classifier_failures_total",
		Help: "Total number of classifier evaluations that returned an error.",
	})
	classifierDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "madlysafe_classifier_duration_seconds",
		Help:    "Duration of a single classifier evaluation.",
		Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})
	artifactLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "madlysafe_artifact_loads_total",
		Help: "Model artifact load attempts by result.",
	}, []string{"result"})
	estimatesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "madlysafe_estimates_total",
		Help: "Estimate requests by outcome.",
	}, []string{"outcome"})
	estimateCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "madlysafe_estimate_cache_hits_total",
		Help: "Estimates answered from Redis.",
	})
)

// InstrumentedLoader wraps next so every classifier it returns reports call
// counts and latency.
func InstrumentedLoader(next risk.LoaderFunc) risk.LoaderFunc {
	return func(path string) (risk.Classifier, error) {
		clf, err := next(path)
		if err != nil {
			artifactLoads.WithLabelValues("error").Inc()
			return nil, err
		}
		artifactLoads.WithLabelValues("ok").Inc()
		return &instrumentedClassifier{next: clf}, nil
	}
}

type instrumentedClassifier struct {
	next risk.Classifier
}

func (c *instrumentedClassifier) PredictProba(rows []risk.Row) ([][]float64, error) {
	start := time.Now()
	out, err := c.next.PredictProba(rows)
	classifierDuration.Observe(time.Since(start).Seconds())
	classifierCalls.Inc()
	if err != nil {
		classifierFailures.Inc()
	}
	return out, err
}

func (c *instrumentedClassifier) Version() string { return risk.ModelVersion(c.next) }

func (c *instrumentedClassifier) Known() map[string][]string {
	if k, ok := c.next.(interface{ Known() map[string][]string }); ok {
		return k.Known()
	}
	return nil
}
