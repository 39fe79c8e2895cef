package engine

// Consumer-side interfaces for the engine's external collaborators.
// Concrete implementations live in llm, store and export; defining
// the contracts here keeps the engine testable with in-memory fakes.

import "context"

// DocumentContext is the view of a document the classifier and composer
// work with. Absence of a document is represented by a nil pointer, not
// an error.
type DocumentContext struct {
	UID      string
	Title    string
	Text     string
	Sections []string
}

// DocumentProvider supplies document context for a session.
// Any error is treated as "no document": classification proceeds with
// document relevance forced to zero.
type DocumentProvider interface {
	GetDocument(ctx context.Context, sessionUID string) (*DocumentContext, error)
}

// Turn is one prior exchange in a conversation, as the engine sees it.
type Turn struct {
	Question string
	Pattern  Pattern
	Tone     ToneCategory
	Tier     Tier
}

// ConversationStore gives read access to prior turns for continuity
// heuristics. The engine appends exactly one turn per completed request
// and never rewrites history.
type ConversationStore interface {
	RecentTurns(ctx context.Context, sessionUID string, limit int) ([]Turn, error)
	AppendTurn(ctx context.Context, sessionUID string, turn Turn) error
}

// Generator is the answer-generation collaborator (an LLM or equivalent).
// Any error or timeout from it is swallowed at the call site and treated
// as a fallback trigger; its raw error text is never surfaced.
type Generator interface {
	Generate(ctx context.Context, question string, documentContext string) (string, error)
}

// Exporter turns tabular response content into downloadable files.
// Returns the download URL, or "" when nothing was exported.
type Exporter interface {
	DetectAndExport(ctx context.Context, table *DataTable) (string, error)
}
