// Package instrument holds the server's Prometheus metrics.
package instrument

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deaddrop"

var (
	journalistsRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journalists_registered_total",
			Help:      "Number of accepted journalist registrations",
		},
	)
	ephemeralKeys = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ephemeral_keys_total",
			Help:      "Number of published ephemeral keys by verification result",
		},
		[]string{"result"},
	)
	ephemeralKeysHandedOut = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ephemeral_keys_handed_out_total",
			Help:      "Number of ephemeral keys given to sources",
		},
	)
	messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Number of message operations by kind",
		},
		[]string{"op"},
	)
	discoveryRounds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "rounds_total",
			Help:      "Number of discovery rounds by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		journalistsRegistered,
		ephemeralKeys,
		ephemeralKeysHandedOut,
		messages,
		discoveryRounds,
		httpRequests,
	)
}

// JournalistRegistered counts an accepted registration.
func JournalistRegistered() { journalistsRegistered.Inc() }

// EphemeralKeys counts the outcome of a published batch.
func EphemeralKeys(accepted, rejected int) {
	ephemeralKeys.WithLabelValues("accepted").Add(float64(accepted))
	ephemeralKeys.WithLabelValues("rejected").Add(float64(rejected))
}

// EphemeralKeysHandedOut counts keys popped for sources.
func EphemeralKeysHandedOut(n int) { ephemeralKeysHandedOut.Add(float64(n)) }

// MessageDeposited counts a stored envelope.
func MessageDeposited() { messages.WithLabelValues("deposit").Inc() }

// MessageFetched counts a fetched envelope.
func MessageFetched() { messages.WithLabelValues("fetch").Inc() }

// MessageDeleted counts a deleted envelope.
func MessageDeleted() { messages.WithLabelValues("delete").Inc() }

// Discovery counts a discovery stage ("begin" or "redeem") with its outcome.
func Discovery(stage, outcome string) { discoveryRounds.WithLabelValues(stage, outcome).Inc() }

// HTTPRequest counts a served request.
func HTTPRequest(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler exposes the registered metrics.
func Handler() http.Handler { return promhttp.Handler() }
