package types

import "time"

// ContextType categorizes the source of a captured context
type ContextType string

const (
	ContextCode          ContextType = "code"
	ContextDocumentation ContextType = "documentation"
	ContextResearch      ContextType = "research"
	ContextConversation  ContextType = "conversation"
	ContextMeeting       ContextType = "meeting"
	ContextNote          ContextType = "note"
)

// ContextHints carries optional caller-supplied prioritization hints.
// Only the value "high" affects importance scoring; any other value,
// including empty, is a no-op.
type ContextHints struct {
	Complexity string
	Urgency    string
	Importance string
}

// HintHigh is the only hint value that carries an importance bonus
const HintHigh = "high"

// Context is a unit of captured text supplied by the calling application.
// The caller owns its lifecycle; this subsystem only derives nodes from it.
type Context struct {
	ID        string
	Content   string
	Type      ContextType
	Tags      []string
	Hints     ContextHints
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks that the context is well-formed enough to convert
func (c *Context) Validate() error {
	if c == nil {
		return ErrNilContext
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	return nil
}
