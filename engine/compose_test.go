package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (g *stubGenerator) Generate(ctx context.Context, question, documentContext string) (string, error) {
	g.calls++
	return g.answer, g.err
}

type stubExporter struct {
	url string
	err error
}

func (e *stubExporter) DetectAndExport(ctx context.Context, table *DataTable) (string, error) {
	return e.url, e.err
}

func singlePart(text string) NormalizedInput {
	return NormalizedInput{
		Raw:        text,
		Normalized: strings.ToLower(text),
		Parts:      []QuestionPart{{Index: 0, Text: text}},
	}
}

func TestComposeDocumentPattern(t *testing.T) {
	c := NewResponseComposer(nil, nil)
	input := singlePart("Can I terminate this agreement early?")
	intent := IntentScore{Category: IntentDocument, Confidence: 0.7}

	resp, err := c.Compose(context.Background(), PatternDocument, intent, ToneProfile{Dominant: ToneFormal}, input, mtaDocument())
	require.NoError(t, err)

	assert.NoError(t, validateResponse(resp))
	assert.Contains(t, resp.Section(SectionEvidence), "termination")
	assert.NotEmpty(t, resp.Section(SectionPlainEnglish))
	assert.NotEmpty(t, resp.Section(SectionImplications))
	assert.NotEmpty(t, resp.Suggestions)
}

func TestComposeEvidenceWithoutDocument(t *testing.T) {
	c := NewResponseComposer(nil, nil)
	input := singlePart("What are the payment terms?")
	intent := IntentScore{Category: IntentDocument, Confidence: 0.7}

	resp, err := c.Compose(context.Background(), PatternDocument, intent, ToneProfile{Dominant: ToneFormal}, input, nil)
	require.NoError(t, err)

	assert.Contains(t, resp.Section(SectionEvidence), "No excerpt found")
	assert.NoError(t, validateResponse(resp))
}

func TestComposeMultiPartNumbersAndSynthesis(t *testing.T) {
	c := NewResponseComposer(nil, nil)
	input := NormalizedInput{
		Raw:        "What are the payment terms? Can I terminate early? Who owns the derivatives?",
		Normalized: "what are the payment terms? can i terminate early? who owns the derivatives?",
		Parts: []QuestionPart{
			{Index: 0, Text: "What are the payment terms?"},
			{Index: 1, Text: "Can I terminate early?"},
			{Index: 2, Text: "Who owns the derivatives?"},
		},
	}
	intent := IntentScore{Category: IntentDocument, Confidence: 0.7}

	resp, err := c.Compose(context.Background(), PatternDocument, intent, ToneProfile{Dominant: ToneFormal}, input, mtaDocument())
	require.NoError(t, err)

	assert.Contains(t, resp.Content, "## 1.")
	assert.Contains(t, resp.Content, "## 2.")
	assert.Contains(t, resp.Content, "## 3.")
	assert.Contains(t, resp.Content, "## "+SectionSynthesis)
	assert.NotEmpty(t, resp.Section(SectionSynthesis))
	assert.NoError(t, validateResponse(resp))
}

func TestComposeAmbiguousHasAlternatives(t *testing.T) {
	c := NewResponseComposer(nil, nil)
	input := singlePart("What about it and that thing we discussed?")
	input.Flags = []AmbiguityFlag{AmbiguityPronounReference, AmbiguityVagueTerminology}
	intent := IntentScore{Category: IntentDocument, Confidence: 0.1}

	resp, err := c.Compose(context.Background(), PatternAmbiguous, intent, ToneProfile{Dominant: ToneCasual}, input, nil)
	require.NoError(t, err)

	alts := resp.Section(SectionAlternatives)
	assert.GreaterOrEqual(t, strings.Count(alts, "Option"), 2,
		"ambiguous responses must offer at least two labeled alternatives")
	assert.NotEmpty(t, resp.Section(SectionMyTake))
	assert.NotEmpty(t, resp.Suggestions)
	assert.NoError(t, validateResponse(resp))
}

func TestComposeDataTableWithExport(t *testing.T) {
	c := NewResponseComposer(nil, &stubExporter{url: "/exports/abc.csv"})
	input := singlePart("Give me a table of the payment terms")
	intent := IntentScore{Category: IntentDocument, Confidence: 0.8, DataRequest: true}

	resp, err := c.Compose(context.Background(), PatternDataTable, intent, ToneProfile{Dominant: ToneBusiness}, input, mtaDocument())
	require.NoError(t, err)

	assert.True(t, resp.ExportRequested)
	assert.Equal(t, "/exports/abc.csv", resp.ExportURL)
	require.NotNil(t, resp.Table)
	assert.Equal(t, "Payment Terms", resp.Table.Title)
	assert.Contains(t, resp.Content, "|")
}

func TestComposeExportFailureIsSwallowed(t *testing.T) {
	c := NewResponseComposer(nil, &stubExporter{err: errors.New("disk full")})
	input := singlePart("Export this to a spreadsheet")
	intent := IntentScore{Category: IntentDocument, Confidence: 0.8, DataRequest: true}

	resp, err := c.Compose(context.Background(), PatternDataTable, intent, ToneProfile{Dominant: ToneFormal}, input, nil)
	require.NoError(t, err)

	assert.True(t, resp.ExportRequested)
	assert.Empty(t, resp.ExportURL)
	assert.NotContains(t, resp.Content, "disk full")
}

func TestComposeGeneratorFailurePropagates(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream timeout")}
	c := NewResponseComposer(gen, nil)
	input := singlePart("Can I terminate this agreement early?")
	intent := IntentScore{Category: IntentDocument, Confidence: 0.7}

	resp, err := c.Compose(context.Background(), PatternDocument, intent, ToneProfile{Dominant: ToneFormal}, input, mtaDocument())

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 1, gen.calls)
}

func TestComposeNilGeneratorIsHeuristic(t *testing.T) {
	c := NewResponseComposer(nil, nil)
	input := singlePart("Can I terminate this agreement early?")
	intent := IntentScore{Category: IntentDocument, Confidence: 0.7}

	resp, err := c.Compose(context.Background(), PatternDocument, intent, ToneProfile{Dominant: ToneFormal}, input, mtaDocument())
	require.NoError(t, err)
	assert.NoError(t, validateResponse(resp))
}

func TestComposeGeneratorAnswerUsed(t *testing.T) {
	gen := &stubGenerator{answer: "You may end the agreement with thirty days notice."}
	c := NewResponseComposer(gen, nil)
	input := singlePart("Can I terminate this agreement early?")
	intent := IntentScore{Category: IntentDocument, Confidence: 0.7}

	resp, err := c.Compose(context.Background(), PatternDocument, intent, ToneProfile{Dominant: ToneFormal}, input, mtaDocument())
	require.NoError(t, err)

	assert.Contains(t, resp.Section(SectionPlainEnglish), "thirty days notice")
}

func TestComposeRejectsUnknownPattern(t *testing.T) {
	c := NewResponseComposer(nil, nil)

	_, err := c.Compose(context.Background(), Pattern("bogus"), IntentScore{}, ToneProfile{}, singlePart("hi"), nil)
	assert.Error(t, err)
}

func TestAdaptTextPreservesNumbersAndStructure(t *testing.T) {
	text := "### Evidence\n" +
		"Payment of $5,000 is due pursuant to Section 4.2\n" +
		"| Fee | Amount |\n" +
		"Therefore the recipient shall comply"

	got := adaptText(text, casualReplacements)

	assert.Contains(t, got, "Payment of $5,000 is due pursuant to Section 4.2",
		"lines with figures and citations stay verbatim")
	assert.Contains(t, got, "| Fee | Amount |")
	assert.Contains(t, got, "### Evidence")
	assert.Contains(t, got, "So the recipient will comply")
}

func TestTerminalResponseAlwaysValid(t *testing.T) {
	for _, raw := range []string{"", "what are the terms", strings.Repeat("x", 100000)} {
		resp := terminalResponse(&request{input: singlePart(raw)})
		assert.NoError(t, validateResponse(resp))
		assert.Equal(t, PatternErrorRecovery, resp.Pattern)
		assert.Equal(t, TierTerminal, resp.Tier)
		assert.GreaterOrEqual(t, len(resp.Suggestions), 2)
	}
}
