// internal/models/health.go
package models

import "time"

// OfflineThreshold is how long a host may stay silent before it is reported
// offline.
const OfflineThreshold = 30 * time.Second

// GPUSample is one GPU reading inside a heartbeat.
type GPUSample struct {
	Utilization float64 `json:"utilization"`
	MemoryUsed  float64 `json:"memory_used"`
	MemoryTotal float64 `json:"memory_total"`
}

// HealthSample is one heartbeat from a transcription worker host.
type HealthSample struct {
	Seen        int64       `json:"seen"`
	LoadAvg     float64     `json:"load_avg"`
	MemoryUsage float64     `json:"memory_usage"`
	GPUUsage    []GPUSample `json:"gpu_usage"`
}

// Online reports whether a sample is recent enough to count the host as up.
func (s HealthSample) Online(now time.Time) bool {
	return now.Unix()-s.Seen <= int64(OfflineThreshold.Seconds())
}

// Heartbeat is the payload workers POST.
type Heartbeat struct {
	Hostname    string      `json:"hostname"`
	LoadAvg     float64     `json:"load_avg"`
	MemoryUsage float64     `json:"memory_usage"`
	GPUUsage    []GPUSample `json:"gpu_usage"`
}

// StatusReport is the public service status payload.
type StatusReport struct {
	Backend       string `json:"backend"`
	Database      string `json:"database"`
	Workers       string `json:"workers"`
	WorkersOnline int    `json:"workers_online"`
}
