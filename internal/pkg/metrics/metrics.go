// Package metrics provides Prometheus metrics for duplicate detection and merging.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectionsTotal tracks detection calls by entity type, mode and outcome
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "dedup",
			Name:      "detections_total",
			Help:      "Total number of duplicate detection calls",
		},
		[]string{"entity_type", "mode", "status"},
	)

	// DuplicateGroupsFound tracks the number of groups returned by detection
	DuplicateGroupsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "dedup",
			Name:      "groups_found_total",
			Help:      "Total number of duplicate groups returned",
		},
		[]string{"entity_type"},
	)

	// DetectionDuration tracks detection latency in seconds
	DetectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crm",
			Subsystem: "dedup",
			Name:      "detection_duration_seconds",
			Help:      "Duration of duplicate detection calls in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"entity_type", "mode"},
	)

	// MergesTotal tracks merge calls by entity type and outcome
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "merge",
			Name:      "merges_total",
			Help:      "Total number of merge calls by status",
		},
		[]string{"entity_type", "status"},
	)

	// RecordsMerged tracks duplicates soft-deleted by merges
	RecordsMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "merge",
			Name:      "records_merged_total",
			Help:      "Total number of duplicate records merged into a master",
		},
		[]string{"entity_type"},
	)

	// DependentsReassigned tracks foreign keys repointed by merges
	DependentsReassigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "merge",
			Name:      "dependents_reassigned_total",
			Help:      "Total number of dependent records repointed to a master",
		},
		[]string{"entity_type", "dependent"},
	)

	// MergeDuration tracks merge latency in seconds
	MergeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crm",
			Subsystem: "merge",
			Name:      "duration_seconds",
			Help:      "Duration of merge calls in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"entity_type"},
	)

	// TasksProcessed tracks background tasks handled by the worker
	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "queue",
			Name:      "tasks_processed_total",
			Help:      "Total number of queue tasks processed",
		},
		[]string{"task_type", "status"},
	)
)

// Status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// StatusOf maps an error to a status label
func StatusOf(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
