// Package agent is the conversational side of calmate: it turns a line of
// user text into a call to one of the calendar tools and returns the tool's
// answer.
//
// The conversation history belongs to the caller and is passed to every
// Respond call. IntentAgent is a deterministic, offline Agent that
// recognizes a small set of phrasings; tools are reached through a
// ToolCaller, normally the in-process MCP server, so the REPL and MCP
// clients share one tool boundary.
package agent
