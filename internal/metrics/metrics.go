package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ScansTotal counts accepted scans by computed status.
var ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "presence_scans_total",
	Help: "Accepted scans by classified status.",
}, []string{"status"})

// ScanFailures counts rejected scans by reason.
var ScanFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "presence_scan_failures_total",
	Help: "Rejected scans by failure reason.",
}, []string{"reason"})

// QueryFailures counts failed listing/summary reads by reason.
var QueryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "presence_query_failures_total",
	Help: "Failed dashboard queries by failure reason.",
}, []string{"reason"})
