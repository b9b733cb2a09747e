// Package config handles configuration loading for hearth-bridge.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  token: "${HEARTH_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	stream:
//	  poll_interval: "200ms"
//	  heartbeat_interval: "10s"
//	  idle_timeout: "5m"
//	  message_ttl: "5m"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  base_url: "https://bridge.example.com"
//
// Database:
//
//	database:
//	  path: "/var/lib/hearth/bridge.db"
//
// Authentication:
//
//	auth:
//	  token: "${HEARTH_TOKEN}"   # Required; no token means all requests denied
//	  identity: "admin"          # Acting identity the token resolves to
//	  capabilities:
//	    admin: ["catalog", "orders", "manage"]
//
// Streaming transport:
//
//	stream:
//	  poll_interval: "200ms"
//	  heartbeat_interval: "10s"
//	  idle_timeout: "5m"
//	  debug_idle_timeout: "1m"
//	  message_ttl: "5m"
//	  sweep_schedule: "* * * * *"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	  file: "/var/log/hearth/bridge.log"  # optional, rotated
//
// Metrics:
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
package config
