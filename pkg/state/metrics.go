package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// stateSaves tracks successful state saves by backend
	stateSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woo_state_saves_total",
			Help: "Total number of state saves",
		},
		[]string{"backend"}, // "file", "redis", "memory"
	)

	// stateErrors tracks state store errors
	stateErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woo_state_errors_total",
			Help: "Total number of state store errors",
		},
		[]string{"backend", "operation"}, // "load", "save"
	)

	// stateSize tracks the size of the last saved state document
	stateSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "woo_state_size_bytes",
			Help: "Size of the last saved state document in bytes",
		},
		[]string{"backend"},
	)
)
