// Package store provides database access to all persisted objects.
package store

import (
	"context"
	"time"

	"github.com/openclerk/contractsense/cache"
	"github.com/openclerk/contractsense/internal/profile"
)

// Store provides database access with a read-through document cache.
type Store struct {
	profile *profile.Profile
	driver  Driver

	documentCache *cache.LRU[string, *Document]
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:        driver,
		profile:       profile,
		documentCache: cache.New[string, *Document](512, 10*time.Minute),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateDocument(ctx context.Context, create *CreateDocument) (*Document, error) {
	doc, err := s.driver.CreateDocument(ctx, create)
	if err != nil {
		return nil, err
	}
	// A session holds one active document: the newest upload replaces
	// the cached entry.
	s.documentCache.Set("session:"+doc.SessionUID, doc, 0)
	return doc, nil
}

// GetSessionDocument returns the newest document for a session, or nil.
func (s *Store) GetSessionDocument(ctx context.Context, sessionUID string) (*Document, error) {
	key := "session:" + sessionUID
	if doc, ok := s.documentCache.Get(key); ok {
		return doc, nil
	}
	doc, err := s.driver.GetDocument(ctx, &FindDocument{SessionUID: sessionUID})
	if err != nil {
		return nil, err
	}
	if doc != nil {
		s.documentCache.Set(key, doc, 0)
	}
	return doc, nil
}

func (s *Store) DeleteDocument(ctx context.Context, uid string) error {
	if err := s.driver.DeleteDocument(ctx, uid); err != nil {
		return err
	}
	// Session mapping is unknown here; drop everything rather than
	// serve a deleted document.
	s.documentCache.Clear()
	return nil
}

func (s *Store) CreateConversationTurn(ctx context.Context, create *CreateConversationTurn) (*ConversationTurn, error) {
	return s.driver.CreateConversationTurn(ctx, create)
}

func (s *Store) ListConversationTurns(ctx context.Context, find *FindConversationTurns) ([]*ConversationTurn, error) {
	return s.driver.ListConversationTurns(ctx, find)
}

func (s *Store) DeleteConversationTurns(ctx context.Context, sessionUID string) error {
	return s.driver.DeleteConversationTurns(ctx, sessionUID)
}
