package store

// ConversationTurn is one question/answer exchange in a session. Only
// the routing outcome is persisted, not the full response body; the
// history exists to drive topic-continuity scoring and session review.
type ConversationTurn struct {
	ID         int64
	SessionUID string
	Question   string
	Pattern    string
	Tone       string
	Tier       string
	CreatedTs  int64
}

// CreateConversationTurn is the insert payload.
type CreateConversationTurn struct {
	SessionUID string
	Question   string
	Pattern    string
	Tone       string
	Tier       string
}

// FindConversationTurns filters history lookups. Limit bounds the
// result to the most recent turns; zero means no limit.
type FindConversationTurns struct {
	SessionUID string
	Limit      int
}
