package http

import "github.com/prometheus/client_golang/prometheus"

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "flume",
		Subsystem: "ingestion",
		Name:      "requests_total",
		Help:      "Intake requests by result: accepted, rejected or failed.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(requestsTotal)
}
