// Package calendar_tools exposes the calendar assistant as MCP tools.
//
// Every tool answers with the same text the interactive assistant prints.
// Failures such as an unrecognized date are returned as error results; a
// title that matched nothing is an ordinary text answer. The tools that
// change the calendar are only registered when the server is not read-only.
package calendar_tools
