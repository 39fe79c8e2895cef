package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// defaultTierBudget caps the wall-clock time the degradable tiers may
// spend in total before the chain drops to the terminal response.
const defaultTierBudget = 2 * time.Second

// request carries one question through the tier chain.
type request struct {
	sessionUID string
	input      NormalizedInput
	doc        *DocumentContext
	turns      []Turn
}

type tierStage struct {
	tier Tier
	run  func(context.Context, *request) (*ComposedResponse, error)
}

// respondWithFallback walks the tier chain until a tier produces a
// valid response. Panics and failures inside a tier demote to the next
// tier, the whole chain shares one wall-clock deadline, and the
// terminal tier cannot fail.
func (s *Service) respondWithFallback(ctx context.Context, req *request) *ComposedResponse {
	stages := []tierStage{
		{TierFull, s.respondFull},
		{TierSimplified, s.respondSimplified},
		{TierMinimal, s.respondMinimal},
	}

	chainCtx, cancel := context.WithTimeout(ctx, s.cfg.TierBudget)
	defer cancel()

	for _, stage := range stages {
		if chainCtx.Err() != nil {
			slog.Warn("tier chain deadline exceeded, dropping to terminal",
				"tier", string(stage.tier),
				"session", req.sessionUID)
			s.metrics.TierFallback(string(stage.tier))
			break
		}
		resp, err := s.attemptTier(chainCtx, stage, req)
		if err != nil {
			slog.Warn("response tier failed, degrading",
				"tier", string(stage.tier),
				"session", req.sessionUID,
				"error", err)
			s.metrics.TierFallback(string(stage.tier))
			continue
		}
		resp.Tier = stage.tier
		return resp
	}

	resp := terminalResponse(req)
	resp.Tier = TierTerminal
	return resp
}

// attemptTier runs one tier under a deadline and panic guard, then
// validates the output contract before accepting it.
func (s *Service) attemptTier(ctx context.Context, stage tierStage, req *request) (resp *ComposedResponse, err error) {
	tierCtx, cancel := context.WithTimeout(ctx, s.cfg.TierBudget)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = errors.Errorf("tier %s panicked: %v", stage.tier, r)
		}
	}()

	resp, err = stage.run(tierCtx, req)
	if err != nil {
		return nil, err
	}
	if err := validateResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// validateResponse enforces the output contract every accepted tier
// must meet: a known pattern, all of its required sections with
// non-empty bodies, and at least one suggestion.
func validateResponse(resp *ComposedResponse) error {
	if resp == nil {
		return errors.New("nil response")
	}
	if !resp.Pattern.Valid() {
		return errors.Errorf("invalid pattern %q", resp.Pattern)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return errors.New("empty response content")
	}
	for _, name := range resp.Pattern.RequiredSections() {
		if strings.TrimSpace(resp.Section(name)) != "" {
			continue
		}
		// Multi-part answers carry numbered section variants.
		if hasNumberedSection(resp.Sections, name) {
			continue
		}
		return errors.Errorf("missing or empty required section %q", name)
	}
	if len(resp.Suggestions) == 0 {
		return errors.New("no suggestions attached")
	}
	return nil
}

func hasNumberedSection(sections []Section, name string) bool {
	suffix := ". " + name
	for _, s := range sections {
		if strings.HasSuffix(s.Name, suffix) && strings.TrimSpace(s.Content) != "" {
			return true
		}
	}
	return false
}

// terminalResponse is the static last resort. It is built from
// constants only, so it cannot itself fail, and it never leaks internal
// error details.
func terminalResponse(req *request) *ComposedResponse {
	guidance := "I hit a problem while putting together a full answer, so here is how we can move forward instead."
	if strings.TrimSpace(req.input.Raw) == "" {
		guidance = "I didn't receive a question to work with, so here is how we can get started."
	}

	suggestions := []string{
		"Try rephrasing your question with the specific clause or topic you care about",
		"Ask about a single topic at a time, such as payment terms or termination",
		"Ask me to summarize the document as a starting point",
	}

	sections := []Section{
		{Name: SectionGuidance, Content: guidance},
		{Name: SectionSuggestions, Content: "- " + strings.Join(suggestions, "\n- ")},
	}

	return &ComposedResponse{
		Pattern:     PatternErrorRecovery,
		Sections:    sections,
		Content:     renderMarkdown(sections),
		Tone:        ToneFormal,
		Suggestions: suggestions,
		Tier:        TierTerminal,
	}
}
