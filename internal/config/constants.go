package config

import "invpulse/pkg/contracts"

// Application constants
const (
	// Application Info
	AppName    = "InvPulse"
	AppVersion = contracts.Version

	// API surface
	APIPrefix      = "/api"
	UploadFormFile = "file"
	MetricsPath    = "/metrics"
	WebSocketPath  = "/ws"
)
