// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP latency by route pattern
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swipeflow_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// FlowSaves counts save-flow attempts by result (created, updated, rejected)
	FlowSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swipeflow_flow_saves_total",
		Help: "Total save-flow attempts by result",
	}, []string{"result"})

	// RunsCreated counts new runs by caller kind (user, anonymous)
	RunsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swipeflow_runs_created_total",
		Help: "Total runs created by caller kind",
	}, []string{"kind"})

	AnswersSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swipeflow_answers_total",
		Help: "Total answers recorded",
	})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swipeflow_runs_completed_total",
		Help: "Total runs that reached the completed state",
	})

	// ScoreCalculations separates real summations from cached reads
	ScoreCalculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swipeflow_score_calculations_total",
		Help: "Total score calculations by result (computed, cached)",
	}, []string{"result"})

	// InvalidBranches counts stored branch targets rejected at run time
	InvalidBranches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swipeflow_invalid_branch_total",
		Help: "Total branch targets rejected because they left their flow",
	})
)

// Label values
const (
	SaveCreated  = "created"
	SaveUpdated  = "updated"
	SaveRejected = "rejected"

	KindUser      = "user"
	KindAnonymous = "anonymous"

	ScoreComputed = "computed"
	ScoreCached   = "cached"
)
