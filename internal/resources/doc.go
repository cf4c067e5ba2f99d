// Package resources provides read-only MCP resources describing the
// calendar calmate operates on: its settings, today's events and this
// week's events.
package resources
