package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// placeholderContent substitutes for any section whose extraction came
// back empty. The composer contract forbids empty section bodies.
const placeholderContent = "No specific details were identified for this point; reviewing the relevant part of the document directly is recommended."

// ResponseComposer renders the selected pattern's required sections,
// applies tone adaptation and handles multi-part synthesis. Both
// collaborators are optional: a nil generator composes heuristically,
// but a configured generator that fails or times out fails the whole
// composition so the tier chain can degrade. Export failure never
// fails a composition.
type ResponseComposer struct {
	generator Generator
	exporter  Exporter
}

// NewResponseComposer creates a composer. Both collaborators may be nil.
func NewResponseComposer(generator Generator, exporter Exporter) *ResponseComposer {
	return &ResponseComposer{generator: generator, exporter: exporter}
}

// Compose builds the structured response for the chosen pattern.
// All required sections are populated, suggestions are never empty, and
// the ambiguous pattern always carries at least two alternatives.
func (c *ResponseComposer) Compose(ctx context.Context, pattern Pattern, intent IntentScore, tone ToneProfile, input NormalizedInput, doc *DocumentContext) (*ComposedResponse, error) {
	if !pattern.Valid() {
		return nil, errors.Errorf("unknown response pattern %q", pattern)
	}

	resp := &ComposedResponse{
		Pattern:    pattern,
		Tone:       tone.Dominant,
		Confidence: intent.Confidence,
	}

	generated, err := c.generate(ctx, input.Raw, doc)
	if err != nil {
		return nil, err
	}

	multiPart := len(input.Parts) > 1 && pattern != PatternDataTable && pattern != PatternErrorRecovery
	if multiPart {
		c.composeMultiPart(resp, pattern, input, doc, generated)
	} else {
		resp.Sections = c.renderSections(pattern, input, doc, generated)
		resp.Content = renderMarkdown(resp.Sections)
	}

	if pattern == PatternDataTable {
		c.attachExport(ctx, resp, input, doc)
	}

	resp.Suggestions = c.suggestions(pattern, input, doc)
	applyTone(resp, tone)
	fillPlaceholders(resp)

	return resp, nil
}

// generate calls the answer-generation collaborator at most once per
// composition. An error or timeout from a configured generator fails
// the composition; the raw error text is logged by the tier chain and
// never reaches the response.
func (c *ResponseComposer) generate(ctx context.Context, question string, doc *DocumentContext) (string, error) {
	if c.generator == nil || strings.TrimSpace(question) == "" {
		return "", nil
	}
	docText := ""
	if doc != nil {
		docText = doc.Text
	}
	answer, err := c.generator.Generate(ctx, question, docText)
	if err != nil {
		return "", errors.Wrap(err, "answer generation")
	}
	return strings.TrimSpace(answer), nil
}

// renderSections dispatches to the single render function for the
// pattern variant.
func (c *ResponseComposer) renderSections(pattern Pattern, input NormalizedInput, doc *DocumentContext, generated string) []Section {
	switch pattern {
	case PatternDocument:
		return renderDocument(input, doc, generated)
	case PatternGeneralLegal:
		return renderGeneralLegal(input, doc, generated)
	case PatternDataTable:
		return renderDataTable(input, doc)
	case PatternAmbiguous:
		return renderAmbiguous(input)
	default:
		return renderErrorRecovery(input)
	}
}

// composeMultiPart renders one numbered subsection per question part,
// each independently composed via the same pattern rules, followed by a
// single synthesis paragraph connecting them.
func (c *ResponseComposer) composeMultiPart(resp *ComposedResponse, pattern Pattern, input NormalizedInput, doc *DocumentContext, generated string) {
	var b strings.Builder
	b.WriteString("Your question has multiple components. Here's my analysis:\n\n")

	for _, part := range input.Parts {
		partInput := NormalizedInput{
			Raw:        part.Text,
			Normalized: strings.ToLower(part.Text),
			Parts:      []QuestionPart{{Index: 0, Text: part.Text}},
		}
		sections := c.renderSections(pattern, partInput, doc, "")

		fmt.Fprintf(&b, "## %d. %s\n\n", part.Index+1, truncate(part.Text, 60))
		b.WriteString(renderMarkdown(sections))
		b.WriteString("\n")

		for _, s := range sections {
			resp.Sections = append(resp.Sections, Section{
				Name:    fmt.Sprintf("%d. %s", part.Index+1, s.Name),
				Content: s.Content,
			})
		}
	}

	synthesis := synthesizeParts(input.Parts, generated)
	resp.Sections = append(resp.Sections, Section{Name: SectionSynthesis, Content: synthesis})

	b.WriteString("## " + SectionSynthesis + "\n\n")
	b.WriteString(synthesis)
	resp.Content = b.String()
}

// synthesizeParts writes the paragraph connecting the numbered answers.
func synthesizeParts(parts []QuestionPart, generated string) string {
	if generated != "" {
		return generated
	}
	if len(parts) > 2 {
		return "Taken together, these questions cover interconnected aspects of the agreement; understanding each one informs the others, and all of them should feed into your overall position on the contract."
	}
	return "These two questions are closely related, and both affect your position under the agreement."
}

// renderDocument builds Evidence, Plain English and Implications.
func renderDocument(input NormalizedInput, doc *DocumentContext, generated string) []Section {
	evidence := extractEvidence(input, doc)

	plain := generated
	if plain == "" {
		plain = explainInPlainEnglish(input.Normalized, evidence)
	}

	return []Section{
		{Name: SectionEvidence, Content: evidence},
		{Name: SectionPlainEnglish, Content: plain},
		{Name: SectionImplications, Content: analyzeImplications(input.Normalized)},
	}
}

// extractEvidence picks up to three document sentences sharing keywords
// with the question. The required section is never empty: absence of a
// match is stated explicitly.
func extractEvidence(input NormalizedInput, doc *DocumentContext) string {
	if doc == nil || strings.TrimSpace(doc.Text) == "" {
		return "No excerpt found: no document is currently loaded for analysis."
	}

	words := keywords(input.Normalized)
	var hits []string
	for _, sentence := range splitSentences(doc.Text) {
		if len(hits) >= 3 {
			break
		}
		lower := strings.ToLower(sentence)
		for _, w := range words {
			if strings.Contains(lower, w) {
				hits = append(hits, sentence)
				break
			}
		}
	}

	if len(hits) == 0 {
		return "No excerpt found: the document does not appear to address this question directly."
	}
	var b strings.Builder
	b.WriteString("Based on the document:\n")
	for _, h := range hits {
		b.WriteString("- " + strings.TrimSpace(h) + "\n")
	}
	return strings.TrimSpace(b.String())
}

// explainInPlainEnglish maps recognized terms in the question or the
// evidence to their plain-language explanations.
func explainInPlainEnglish(lower, evidence string) string {
	evidenceLower := strings.ToLower(evidence)

	var lines []string
	for _, e := range termExplanations {
		if strings.Contains(lower, e.Term) || strings.Contains(evidenceLower, e.Term) {
			lines = append(lines, fmt.Sprintf("**%s**: %s", capitalize(e.Term), e.Explanation))
		}
	}
	if len(lines) == 0 {
		return "In simple terms: this concerns the rights, responsibilities and practical arrangements between the parties to the contract."
	}
	return "Here's what this means in plain terms:\n" + strings.Join(lines, "\n")
}

// analyzeImplications derives the practical-impact paragraph from the
// question's subject.
func analyzeImplications(lower string) string {
	topic := lookupTopic(lower)
	if topic.Application == fallbackRule.Application {
		return "This affects your rights and obligations under the contract. Make sure you understand the relevant requirements and can comply with them."
	}
	return topic.Application
}

// renderGeneralLegal builds Status, General Rule and Application. The
// Status section is the transparency disclaimer describing how far the
// loaded document covers the topic.
func renderGeneralLegal(input NormalizedInput, doc *DocumentContext, generated string) []Section {
	topic := lookupTopic(input.Normalized)

	rule := generated
	if rule == "" {
		rule = topic.GeneralRule
	}

	return []Section{
		{Name: SectionStatus, Content: documentStatus(input, doc)},
		{Name: SectionGeneralRule, Content: rule},
		{Name: SectionApplication, Content: topic.Application},
	}
}

// documentStatus states how directly the loaded document covers the
// question, so general knowledge is never passed off as document content.
func documentStatus(input NormalizedInput, doc *DocumentContext) string {
	if doc == nil {
		return "No document is currently loaded; the following is general background, not an analysis of your agreement."
	}
	ratio := overlapRatio(input.Normalized, doc)
	switch {
	case ratio > 0.7:
		return "The loaded document covers this topic directly; the general background below supplements what your agreement says."
	case ratio > 0.3:
		return "The loaded document has some related information, but this question goes beyond what it specifically covers."
	default:
		return "The loaded document does not specifically address this question; here is what typically applies."
	}
}

// Table archetypes keyed on the question subject.
var tableArchetypes = []struct {
	Keywords []string
	Table    DataTable
}{
	{
		Keywords: []string{"party", "parties", "who"},
		Table: DataTable{
			Title:   "Contract Parties",
			Headers: []string{"Role", "Entity", "Responsibilities"},
			Rows: [][]string{
				{"Provider", "First contracting party", "Primary obligations"},
				{"Recipient", "Second contracting party", "Counterparty obligations"},
			},
		},
	},
	{
		Keywords: []string{"payment", "fee", "cost"},
		Table: DataTable{
			Title:   "Payment Terms",
			Headers: []string{"Payment", "Amount", "Due", "Conditions"},
			Rows: [][]string{
				{"Initial payment", "As specified", "Upon signing", "Standard terms"},
				{"Ongoing fees", "As specified", "Per schedule", "Performance based"},
			},
		},
	},
	{
		Keywords: []string{"timeline", "schedule", "date", "when"},
		Table: DataTable{
			Title:   "Contract Timeline",
			Headers: []string{"Milestone", "Date", "Responsible"},
			Rows: [][]string{
				{"Effective date", "As specified", "Both parties"},
				{"Key deliverables", "As specified", "As assigned"},
				{"Expiration", "As specified", "Both parties"},
			},
		},
	},
	{
		Keywords: []string{"risk", "liability"},
		Table: DataTable{
			Title:   "Risk and Liability Matrix",
			Headers: []string{"Risk", "Responsible Party", "Mitigation"},
			Rows: [][]string{
				{"Performance risk", "Service provider", "Monitoring and SLAs"},
				{"Financial risk", "Both parties", "Insurance coverage"},
				{"Legal risk", "As specified", "Compliance review"},
			},
		},
	},
}

// buildDataTable selects a table archetype matching the question.
func buildDataTable(input NormalizedInput, doc *DocumentContext) *DataTable {
	for _, a := range tableArchetypes {
		if containsAny(input.Normalized, a.Keywords) {
			table := a.Table
			return &table
		}
	}
	table := &DataTable{
		Title:   "Contract Summary",
		Headers: []string{"Aspect", "Details"},
		Rows: [][]string{
			{"Document", "Contract/Agreement"},
			{"Parties", "Multiple parties involved"},
			{"Key terms", "Obligations and rights as specified"},
		},
	}
	if doc == nil {
		table.Rows = [][]string{{"Status", "No document loaded"}}
	}
	return table
}

// renderDataTable builds the tabular body as a markdown table.
func renderDataTable(input NormalizedInput, doc *DocumentContext) []Section {
	table := buildDataTable(input, doc)

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", table.Title)
	b.WriteString("| " + strings.Join(table.Headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(table.Headers)) + "\n")
	for _, row := range table.Rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	return []Section{{Name: SectionTable, Content: b.String()}}
}

// attachExport marks the response as export-requested and hands the
// table to the export collaborator. Export failure leaves the flag set
// and the URL empty; it never fails the composition.
func (c *ResponseComposer) attachExport(ctx context.Context, resp *ComposedResponse, input NormalizedInput, doc *DocumentContext) {
	resp.ExportRequested = true
	resp.Table = buildDataTable(input, doc)

	if c.exporter == nil {
		return
	}
	url, err := c.exporter.DetectAndExport(ctx, resp.Table)
	if err != nil {
		slog.Warn("export generation failed", "error", err)
		return
	}
	if url != "" {
		resp.ExportURL = url
		resp.Content += fmt.Sprintf("\n**Export:** data available for download at %s\n", url)
	}
}

// renderAmbiguous builds the primary interpretation, the labeled
// alternatives and the synthesis connecting them.
func renderAmbiguous(input NormalizedInput) []Section {
	primary := primaryInterpretation(input.Normalized)
	alts := alternativeInterpretations(input)

	var altBody strings.Builder
	for _, alt := range alts {
		fmt.Fprintf(&altBody, "**If %s**: %s\n- %s\n", alt.Label, alt.Description, alt.Path)
	}

	synthesis := fmt.Sprintf(
		"The primary reading focuses on %s, while the alternatives cover %s. These readings are related: addressing one usually informs the others. Tell me which angle matters most and I'll go deeper.",
		primary, strings.ToLower(alts[0].Label),
	)

	return []Section{
		{Name: SectionMyTake, Content: fmt.Sprintf("I'm reading this as a %s question. %s", primary, interpretationReasoning(primary))},
		{Name: SectionAlternatives, Content: altBody.String()},
		{Name: SectionSynthesis, Content: synthesis},
	}
}

func interpretationReasoning(primary string) string {
	return fmt.Sprintf("Based on the question structure and key terms, this appears to be a %s question.", primary)
}

// renderErrorRecovery builds actionable guidance with no raw error text.
func renderErrorRecovery(input NormalizedInput) []Section {
	guidance := "I want to help with your question, but I need to approach it differently."
	switch {
	case len(strings.TrimSpace(input.Raw)) < 3:
		guidance += " Your question seems quite brief; could you share more details about what you'd like to know?"
	case len(input.Flags) >= 2:
		guidance += " Your question has several possible meanings, so let me address the most likely one and you can steer me from there."
	default:
		guidance += " Let me work with what I understand from your question."
	}

	suggestions := "Here are some ways I can help:\n" +
		"- Explain specific contract clauses or terms\n" +
		"- Analyze risks and obligations\n" +
		"- Provide general legal context\n" +
		"- Create summaries or data exports"

	return []Section{
		{Name: SectionGuidance, Content: guidance},
		{Name: SectionSuggestions, Content: suggestions},
	}
}

// suggestions guarantees the response carries at least one follow-up.
func (c *ResponseComposer) suggestions(pattern Pattern, input NormalizedInput, doc *DocumentContext) []string {
	switch pattern {
	case PatternAmbiguous:
		return clarificationSuggestions(alternativeInterpretations(input))
	case PatternDataTable:
		return []string{
			"Would you like this broken down by party or by obligation?",
			"Should I include dates and deadlines in the table?",
		}
	default:
		return suggestFromDocument(doc, 3)
	}
}

// renderMarkdown joins sections under markdown headers.
func renderMarkdown(sections []Section) string {
	var b strings.Builder
	for _, s := range sections {
		if s.Name == SectionTable {
			// Table sections carry their own heading.
			b.WriteString(s.Content + "\n")
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", s.Name, s.Content)
	}
	return strings.TrimSpace(b.String()) + "\n"
}

// fillPlaceholders enforces the non-empty-section contract.
func fillPlaceholders(resp *ComposedResponse) {
	for i, s := range resp.Sections {
		if strings.TrimSpace(s.Content) == "" {
			resp.Sections[i].Content = placeholderContent
		}
	}
	if strings.TrimSpace(resp.Content) == "" {
		resp.Content = placeholderContent
	}
	if len(resp.Suggestions) == 0 {
		resp.Suggestions = []string{commonSuggestions[0]}
	}
}

// splitSentences is a cheap sentence splitter for evidence extraction.
func splitSentences(text string) []string {
	var out []string
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == ';' || r == '\n'
	}) {
		s = strings.TrimSpace(s)
		if len(s) > 10 {
			out = append(out, s)
		}
		if len(out) >= 50 {
			break
		}
	}
	return out
}
