package services

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"autoapply/models"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoapply_runs_total",
		Help: "Application runs by final classification and ok flag.",
	}, []string{"classification", "ok"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autoapply_run_duration_seconds",
		Help:    "Wall time of application runs.",
		Buckets: []float64{1, 2.5, 5, 10, 15, 20, 30, 45, 60},
	})

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoapply_submissions_total",
		Help: "Submit decisions by outcome.",
	}, []string{"outcome"})
)

func observeRun(result *models.ExecutionResult) {
	classification := string(result.Classification)
	if classification == "" {
		classification = "none"
	}
	runsTotal.WithLabelValues(classification, strconv.FormatBool(result.OK)).Inc()
	runDuration.Observe(result.ElapsedSeconds)
	submissionsTotal.WithLabelValues(string(result.SubmitOutcome)).Inc()
}
