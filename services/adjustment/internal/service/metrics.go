package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var (
	adjustmentPreviewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adjustment_previews_total",
			Help: "Total number of adjustment previews evaluated.",
		},
	)

	adjustmentCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adjustment_commits_total",
			Help: "Total number of adjustment commits by result.",
		},
		[]string{"result"},
	)

	adjustmentDiscountAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adjustment_discount_amount",
			Help:    "Total discount of committed orders, in cents.",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8),
		},
	)
)

// commitResult labels a commit outcome for adjustment_commits_total.
func commitResult(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrIneligible):
		return "ineligible"
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrNotFound):
		return "rejected"
	default:
		return "error"
	}
}
