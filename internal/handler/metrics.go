package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infinite_pages_token_verifications_total",
			Help: "Access token verification attempts by result.",
		},
		[]string{"result"},
	)
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infinite_pages_generation_requests_total",
			Help: "Generation endpoint requests by operation and result.",
		},
		[]string{"operation", "result"},
	)
	wsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "infinite_pages_ws_connections_active",
			Help: "Currently open progress WebSocket connections.",
		},
	)
)
