package agent

import (
	"context"
	"errors"
)

// Role identifies who wrote a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Reply is the agent's answer to one input.
type Reply struct {
	Text string

	// Tool is the tool that produced Text, empty for help and fallbacks.
	Tool      string
	Arguments map[string]any
}

// Agent answers user input given the conversation so far.
type Agent interface {
	Respond(ctx context.Context, input string, history []Message) (Reply, error)
}

// ToolCaller invokes a named tool with structured arguments and returns its
// text. Domain failures come back as text; the error is reserved for calls
// that could not be made at all.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// ErrUnknownTool is returned by a ToolCaller for a tool it does not serve.
var ErrUnknownTool = errors.New("unknown tool")

// Append returns history extended with the exchange of input and reply.
func Append(history []Message, input string, reply Reply) []Message {
	return append(history,
		Message{Role: RoleUser, Content: input},
		Message{Role: RoleAssistant, Content: reply.Text},
	)
}
