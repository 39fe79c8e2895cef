package store

import "context"

// Driver is an interface for database drivers.
type Driver interface {
	GetDB() interface{}
	Close() error

	// Migrate brings the schema up to date. Idempotent.
	Migrate(ctx context.Context) error

	CreateDocument(ctx context.Context, create *CreateDocument) (*Document, error)
	// GetDocument returns the newest document matching the filter, or
	// nil when none exists.
	GetDocument(ctx context.Context, find *FindDocument) (*Document, error)
	DeleteDocument(ctx context.Context, uid string) error

	CreateConversationTurn(ctx context.Context, create *CreateConversationTurn) (*ConversationTurn, error)
	// ListConversationTurns returns turns newest first.
	ListConversationTurns(ctx context.Context, find *FindConversationTurns) ([]*ConversationTurn, error)
	DeleteConversationTurns(ctx context.Context, sessionUID string) error
}
