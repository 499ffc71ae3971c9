package requestmanager

import "time"

// Stats is the snapshot returned by Manager.GetStats.
type Stats struct {
	TotalRequests int
	TotalSuccess  int
	TotalFailures int
	Hosts         map[string]HostStats
}

// HostStats is per-domain accounting, updated once per completed request
// (not per retry attempt). Success and Failure always sum to RequestCount.
type HostStats struct {
	RequestCount      int
	Success           int
	Failure           int
	LastRequestAt     time.Time
	AvgResponseTimeMs float64
}
