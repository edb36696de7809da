package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider traffic
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixeljournal_provider_requests_total",
		Help: "Upstream game-data provider calls by outcome.",
	}, []string{"source", "operation", "outcome"}) // outcome: ok, error, skipped

	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pixeljournal_provider_request_duration_seconds",
		Help:    "Duration of upstream game-data provider calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "operation"})

	// Imports
	ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixeljournal_import_rows_total",
		Help: "CSV import rows by outcome.",
	}, []string{"outcome"}) // outcome: added, invalid_url, unresolved, duplicate

	ImportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixeljournal_import_runs_total",
		Help: "CSV import runs by terminal state.",
	}, []string{"status"}) // status: completed, parse_error, failed

	ImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pixeljournal_import_duration_seconds",
		Help:    "Duration of CSV import runs in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	// IGDB token renewal
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixeljournal_igdb_token_refreshes_total",
		Help: "IGDB access token renewals by outcome.",
	}, []string{"outcome"})

	// Library state
	GamesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pixeljournal_games_total",
		Help: "Total number of games across all libraries.",
	})
	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pixeljournal_users_total",
		Help: "Total number of users with stored settings.",
	})
)

// RecordProviderCall records one upstream provider call.
func RecordProviderCall(source, operation, outcome string, start time.Time) {
	ProviderRequests.WithLabelValues(source, operation, outcome).Inc()
	ProviderDuration.WithLabelValues(source, operation).Observe(time.Since(start).Seconds())
}

// RecordImportDuration records the time taken by an import run.
func RecordImportDuration(start time.Time) {
	ImportDuration.Observe(time.Since(start).Seconds())
}

// UpdateLibraryMetrics refreshes gauges that reflect the current state of the database.
func UpdateLibraryMetrics(db *sql.DB) error {
	var games, users int

	if err := db.QueryRow("SELECT COUNT(*) FROM games").Scan(&games); err != nil {
		return err
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM user_settings").Scan(&users); err != nil {
		return err
	}

	GamesTotal.Set(float64(games))
	UsersTotal.Set(float64(users))

	return nil
}
