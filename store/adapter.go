package store

import (
	"context"

	"github.com/openclerk/contractsense/engine"
)

// PipelineAdapter exposes the store through the pipeline's collaborator
// interfaces.
type PipelineAdapter struct {
	store *Store
}

func NewPipelineAdapter(s *Store) *PipelineAdapter {
	return &PipelineAdapter{store: s}
}

// GetDocument implements engine.DocumentProvider.
func (a *PipelineAdapter) GetDocument(ctx context.Context, sessionUID string) (*engine.DocumentContext, error) {
	doc, err := a.store.GetSessionDocument(ctx, sessionUID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return &engine.DocumentContext{
		UID:      doc.UID,
		Title:    doc.Title,
		Text:     doc.Content,
		Sections: doc.Sections,
	}, nil
}

// RecentTurns implements engine.ConversationStore.
func (a *PipelineAdapter) RecentTurns(ctx context.Context, sessionUID string, limit int) ([]engine.Turn, error) {
	rows, err := a.store.ListConversationTurns(ctx, &FindConversationTurns{
		SessionUID: sessionUID,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	turns := make([]engine.Turn, 0, len(rows))
	for _, r := range rows {
		turns = append(turns, engine.Turn{
			Question: r.Question,
			Pattern:  engine.Pattern(r.Pattern),
			Tone:     engine.ToneCategory(r.Tone),
			Tier:     engine.Tier(r.Tier),
		})
	}
	return turns, nil
}

// AppendTurn implements engine.ConversationStore.
func (a *PipelineAdapter) AppendTurn(ctx context.Context, sessionUID string, turn engine.Turn) error {
	_, err := a.store.CreateConversationTurn(ctx, &CreateConversationTurn{
		SessionUID: sessionUID,
		Question:   turn.Question,
		Pattern:    string(turn.Pattern),
		Tone:       string(turn.Tone),
		Tier:       string(turn.Tier),
	})
	return err
}
