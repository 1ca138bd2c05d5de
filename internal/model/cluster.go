package model

import "time"

// ClusterSnapshot holds the cluster-wide counts captured once per run from
// /_cluster/stats. It is advisory: the cluster may change while a run is in
// progress.
type ClusterSnapshot struct {
	DataNodes  int
	Indices    int
	Shards     int
	CapturedAt time.Time
}
