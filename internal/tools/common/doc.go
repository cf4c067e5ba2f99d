// Package common holds helpers shared by calmate's MCP tool packages:
// argument extraction, result text access and the instrumentation wrapper.
package common
