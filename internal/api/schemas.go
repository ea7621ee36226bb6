package api

import "github.com/forPelevin/hlsync/internal/types"

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_s"`
}

type LoadVideoRequest struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Duration float64 `json:"duration,omitempty"`
}

type LoadVideoResponse struct {
	Epoch    uint64  `json:"epoch"`
	Duration float64 `json:"duration"`
}

type DurationRequest struct {
	Duration *float64 `json:"duration"`
}

type GenerateClipsRequest struct {
	Context     *string  `json:"context,omitempty"`
	MinDuration *float64 `json:"min_duration,omitempty"`
	MaxDuration *float64 `json:"max_duration,omitempty"`
}

type SelectRequest struct {
	ClipID string `json:"clip_id"`
}

type TimeRequest struct {
	Time *float64 `json:"time"`
}

type SettingsRequest struct {
	AutoSubtitle  *bool               `json:"auto_subtitle,omitempty"`
	ExportQuality types.ExportQuality `json:"export_quality,omitempty"`
	ShowWatermark *bool               `json:"show_watermark,omitempty"`
}
