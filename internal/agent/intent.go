package agent

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/tools/calendar_tools"
)

// HelpText lists the phrasings IntentAgent understands.
const HelpText = `I can read and change your calendar. Try:
- what's on tomorrow
- show events for 2025-06-10
- create Dentist on 2025-06-10 from 14:00 to 15:00
- move Standup on today to 11:00-11:15
- delete Lunch on friday
- what's next
- this week, next week, last week or week +2`

const notUnderstood = "Sorry, I didn't understand that.\n" + HelpText

// intent is a parsed request: a tool and its arguments.
type intent struct {
	tool string
	args map[string]any
}

type rule struct {
	pattern *regexp.Regexp
	build   func(m []string) (intent, bool)
}

var (
	helpPattern     = regexp.MustCompile(`(?i)^(?:help|\?|what can you do|commands)$`)
	followUpPattern = regexp.MustCompile(`(?i)^(?:and|what about|how about)\s+(.+)$`)
)

var rules = []rule{
	{
		pattern: regexp.MustCompile(`(?i)^(?:(?:what(?:'s| is|s)\s+)?(?:my\s+)?next(?:\s+(?:event|meeting|appointment))?|(?:show\s+)?upcoming(?:\s+events?)?)$`),
		build: func([]string) (intent, bool) {
			return intent{tool: calendar_tools.ToolNextEvent, args: map[string]any{}}, true
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:(?:show|list|what(?:'s| is|s))\s+)?(?:(?:on|for)\s+)?(?:my\s+)?(?:calendar\s+)?(?:(?:for|on)\s+)?(this|next|last)\s+week$`),
		build: func(m []string) (intent, bool) {
			offset := map[string]int{"this": 0, "next": 1, "last": -1}[strings.ToLower(m[1])]
			return weekIntent(offset), true
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:show\s+)?(?:the\s+)?week(?:\s+view)?(?:\s+([+-]?\d+))?$`),
		build: func(m []string) (intent, bool) {
			if m[1] == "" {
				return weekIntent(0), true
			}
			n, err := strconv.Atoi(m[1])
			return weekIntent(n), err == nil
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:show\s+)?in\s+(\d+)\s+weeks?$`),
		build: func(m []string) (intent, bool) {
			n, err := strconv.Atoi(m[1])
			return weekIntent(n), err == nil
		},
	},
	{
		// "on" introduces a date of any length; the last "on" wins so titles
		// may contain the word.
		pattern: regexp.MustCompile(`(?i)^(?:create|add|schedule|book)\s+(?:an?\s+)?(?:event\s+)?(.+)\s+on\s+(.+?)\s+from\s+(.+?)(?:\s*-\s*|\s+(?:to|until)\s+)(.+)$`),
		build:   createIntent,
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:create|add|schedule|book)\s+(?:an?\s+)?(?:event\s+)?(.+?)\s+(\S+)\s+from\s+(.+?)(?:\s*-\s*|\s+(?:to|until)\s+)(.+)$`),
		build:   createIntent,
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:move|reschedule|update)\s+(.+)\s+on\s+(.+?)\s+to\s+([^\s-]+(?:\s*(?:am|pm))?)\s*(?:-|to|until)\s*(.+)$`),
		build: func(m []string) (intent, bool) {
			return intent{tool: calendar_tools.ToolUpdateEvent, args: map[string]any{
				"title":          unquote(m[1]),
				"date":           m[2],
				"new_start_time": normalizeClock(m[3]),
				"new_end_time":   normalizeClock(m[4]),
			}}, true
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:delete|remove|cancel)\s+(.+)\s+(?:on\s+(.+?)|(today|tomorrow))$`),
		build: func(m []string) (intent, bool) {
			date := m[2]
			if date == "" {
				date = m[3]
			}
			return intent{tool: calendar_tools.ToolDeleteEvent, args: map[string]any{
				"title": unquote(m[1]),
				"date":  date,
			}}, true
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:(?:list|show)(?:\s+(?:my\s+)?(?:events|calendar|schedule))?|what(?:'s| is|s)(?:\s+on)?(?:\s+my\s+(?:calendar|schedule))?|events)\s+(?:(?:for|on)\s+)?(.+)$`),
		build: func(m []string) (intent, bool) {
			return intent{tool: calendar_tools.ToolListEvents, args: map[string]any{"day": m[1]}}, true
		},
	},
}

func weekIntent(offset int) intent {
	return intent{tool: calendar_tools.ToolWeeklyView, args: map[string]any{"week_offset": float64(offset)}}
}

// parse maps one utterance to an intent.
func parse(input string) (intent, bool) {
	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(input); m != nil {
			if in, ok := r.build(m); ok {
				return in, true
			}
		}
	}
	return intent{}, false
}

// IntentAgent recognizes a fixed set of phrasings and calls the matching
// calendar tool. Follow-ups such as "and tomorrow?" reuse the last listing
// request found in the history.
type IntentAgent struct {
	tools  ToolCaller
	logger *slog.Logger
}

var _ Agent = (*IntentAgent)(nil)

// NewIntentAgent returns an agent calling tools. logger may be nil.
func NewIntentAgent(tools ToolCaller, logger *slog.Logger) *IntentAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentAgent{tools: tools, logger: logger}
}

// Respond answers input. Unrecognized input gets the help text rather than
// an error; the error is only set when a tool call could not be made.
func (a *IntentAgent) Respond(ctx context.Context, input string, history []Message) (Reply, error) {
	text := clean(input)
	if text == "" || helpPattern.MatchString(text) {
		return Reply{Text: HelpText}, nil
	}

	in, ok := a.resolve(text, history)
	if !ok {
		a.logger.Debug("unrecognized input", slog.String("input", text))
		return Reply{Text: notUnderstood}, nil
	}

	a.logger.Debug("calling tool", logging.Tool(in.tool))
	out, err := a.tools.CallTool(ctx, in.tool, in.args)
	if errors.Is(err, ErrUnknownTool) {
		return Reply{Text: "❌ That operation is not available: calendar changes are disabled.", Tool: in.tool, Arguments: in.args}, nil
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: out, Tool: in.tool, Arguments: in.args}, nil
}

func (a *IntentAgent) resolve(text string, history []Message) (intent, bool) {
	if in, ok := parse(text); ok {
		return in, true
	}

	m := followUpPattern.FindStringSubmatch(text)
	if m == nil {
		return intent{}, false
	}
	rest := clean(m[1])
	if in, ok := parse(rest); ok {
		return in, true
	}
	if lastTool(history) == calendar_tools.ToolListEvents {
		return intent{tool: calendar_tools.ToolListEvents, args: map[string]any{"day": rest}}, true
	}
	return intent{}, false
}

// lastTool returns the tool of the most recent user message that parses.
func lastTool(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != RoleUser {
			continue
		}
		if in, ok := parse(clean(history[i].Content)); ok {
			return in.tool
		}
	}
	return ""
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "?!. ")
	return strings.Join(strings.Fields(s), " ")
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func createIntent(m []string) (intent, bool) {
	return intent{tool: calendar_tools.ToolCreateEvent, args: map[string]any{
		"title":      unquote(m[1]),
		"date":       m[2],
		"start_time": normalizeClock(m[3]),
		"end_time":   normalizeClock(m[4]),
	}}, true
}
