package handlers

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics counts proxy traffic since process start.
type Metrics struct {
	started time.Time

	analyzeTotal  atomic.Int64
	analyzeFailed atomic.Int64
	previewTotal  atomic.Int64
	previewFailed atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{started: time.Now()}
}

type metricsResponse struct {
	UptimeSeconds  int64 `json:"uptime_seconds"`
	AnalyzeTotal   int64 `json:"analyze_total"`
	AnalyzeFailed  int64 `json:"analyze_failed"`
	PreviewTotal   int64 `json:"preview_total"`
	PreviewFailed  int64 `json:"preview_failed"`
	HostKeyEnabled bool  `json:"host_key_enabled"`
}

func (a *App) MetricsSummary(w http.ResponseWriter, r *http.Request) {
	m := a.Metrics
	a.json(w, http.StatusOK, metricsResponse{
		UptimeSeconds:  int64(time.Since(m.started).Seconds()),
		AnalyzeTotal:   m.analyzeTotal.Load(),
		AnalyzeFailed:  m.analyzeFailed.Load(),
		PreviewTotal:   m.previewTotal.Load(),
		PreviewFailed:  m.previewFailed.Load(),
		HostKeyEnabled: a.Backend != nil,
	})
}
