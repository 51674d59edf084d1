// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_reactions_total",
			Help: "Reactions written, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	mutualMatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_mutual_matches_total",
			Help: "Mutual matches detected",
		},
	)

	bestMatchScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_best_match_score",
			Help:    "Distribution of winning best-match scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	liveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_live_connections",
			Help: "Currently registered live connections",
		},
	)

	deliveredEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_delivered_events_total",
			Help: "Events handed to live connections, by event type",
		},
		[]string{"event"},
	)

	pushDispatch = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_dispatch_total",
			Help: "Push notification dispatches, by outcome",
		},
		[]string{"outcome"},
	)

	messagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Chat messages persisted",
		},
	)
)

// Push outcomes.
const (
	PushOK     = "ok"
	PushFailed = "failed"
)

func RecordReaction(reactionType, outcome string) {
	reactionsTotal.WithLabelValues(reactionType, outcome).Inc()
}

func RecordMutualMatch() {
	mutualMatchesTotal.Inc()
}

func RecordBestMatchScore(score float64) {
	bestMatchScores.Observe(score)
}

func ConnectionOpened() {
	liveConnections.Inc()
}

func ConnectionClosed() {
	liveConnections.Dec()
}

func RecordDelivered(event string, n int) {
	deliveredEvents.WithLabelValues(event).Add(float64(n))
}

func RecordPush(outcome string) {
	pushDispatch.WithLabelValues(outcome).Inc()
}

func RecordMessage() {
	messagesSent.Inc()
}
