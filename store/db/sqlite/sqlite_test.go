package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclerk/contractsense/internal/profile"
	"github.com/openclerk/contractsense/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })

	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func TestDocumentRoundTrip(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	created, err := driver.CreateDocument(ctx, &store.CreateDocument{
		SessionUID: "s1",
		Title:      "Material Transfer Agreement",
		Content:    "The Provider transfers materials to the Recipient.",
		Sections:   []string{"Parties", "Payment"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.UID)
	assert.NotZero(t, created.ID)

	got, err := driver.GetDocument(ctx, &store.FindDocument{SessionUID: "s1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.UID, got.UID)
	assert.Equal(t, []string{"Parties", "Payment"}, got.Sections)
}

func TestGetDocumentReturnsNewest(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	_, err := driver.CreateDocument(ctx, &store.CreateDocument{SessionUID: "s1", Title: "old"})
	require.NoError(t, err)
	second, err := driver.CreateDocument(ctx, &store.CreateDocument{SessionUID: "s1", Title: "new"})
	require.NoError(t, err)

	got, err := driver.GetDocument(ctx, &store.FindDocument{SessionUID: "s1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.UID, got.UID)
}

func TestGetDocumentMissing(t *testing.T) {
	driver := newTestDriver(t)

	got, err := driver.GetDocument(context.Background(), &store.FindDocument{SessionUID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConversationTurns(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	questions := []string{"first question", "second question", "third question"}
	for _, q := range questions {
		_, err := driver.CreateConversationTurn(ctx, &store.CreateConversationTurn{
			SessionUID: "s1",
			Question:   q,
			Pattern:    "document",
			Tone:       "formal",
			Tier:       "full",
		})
		require.NoError(t, err)
	}

	turns, err := driver.ListConversationTurns(ctx, &store.FindConversationTurns{SessionUID: "s1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "third question", turns[0].Question, "newest first")

	require.NoError(t, driver.DeleteConversationTurns(ctx, "s1"))
	turns, err = driver.ListConversationTurns(ctx, &store.FindConversationTurns{SessionUID: "s1"})
	require.NoError(t, err)
	assert.Empty(t, turns)
}
