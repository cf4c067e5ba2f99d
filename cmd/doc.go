// Package cmd implements the command-line interface for calmate.
//
// This package provides the following commands:
//   - chat: Interactive conversation with the calendar assistant
//   - serve: Start the MCP server to provide calendar tools for AI assistants
//   - auth: Authorize access to Google Calendar and store the token
//   - export: Write a week or a day of events as iCalendar
//   - config: Show the effective configuration or write a default file
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The chat command is the default command when no subcommand is specified.
package cmd
