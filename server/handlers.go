package server

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openclerk/contractsense/engine"
	"github.com/openclerk/contractsense/internal/version"
	"github.com/openclerk/contractsense/store"
)

type askRequest struct {
	Question   string `json:"question"`
	SessionUID string `json:"session_uid"`
	Render     string `json:"render"` // "html" requests rendered markdown
}

type askResponse struct {
	Pattern     string             `json:"pattern"`
	Tier        string             `json:"tier"`
	Tone        string             `json:"tone"`
	Confidence  float64            `json:"confidence"`
	Content     string             `json:"content"`
	HTML        string             `json:"html,omitempty"`
	Sections    []sectionPayload   `json:"sections"`
	Suggestions []string           `json:"suggestions"`
	Export      *exportPayload     `json:"export,omitempty"`
	Explanation engine.Explanation `json:"explanation"`
}

type sectionPayload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type exportPayload struct {
	Requested bool   `json:"requested"`
	URL       string `json:"url,omitempty"`
}

func (s *Server) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.SessionUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_uid is required")
	}

	resp := s.Pipeline.Respond(c.Request().Context(), req.Question, req.SessionUID)

	payload := askResponse{
		Pattern:     string(resp.Pattern),
		Tier:        string(resp.Tier),
		Tone:        string(resp.Tone),
		Confidence:  resp.Confidence,
		Content:     resp.Content,
		Suggestions: resp.Suggestions,
		Explanation: engine.Explain(resp),
	}
	for _, sec := range resp.Sections {
		payload.Sections = append(payload.Sections, sectionPayload{Name: sec.Name, Content: sec.Content})
	}
	if resp.ExportRequested {
		payload.Export = &exportPayload{Requested: true, URL: resp.ExportURL}
	}
	if req.Render == "html" {
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(resp.Content), &buf); err == nil {
			payload.HTML = buf.String()
		}
	}
	return c.JSON(http.StatusOK, payload)
}

type classifyResponse struct {
	Normalized  string             `json:"normalized"`
	Parts       []string           `json:"parts"`
	Flags       []string           `json:"flags"`
	Category    string             `json:"category"`
	Confidence  float64            `json:"confidence"`
	DataRequest bool               `json:"data_request"`
	Scores      map[string]float64 `json:"scores"`
	Tone        string             `json:"tone"`
}

func (s *Server) classify(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	input, intent, tone := s.Pipeline.Classify(c.Request().Context(), req.Question, req.SessionUID)

	payload := classifyResponse{
		Normalized:  input.Normalized,
		Category:    string(intent.Category),
		Confidence:  intent.Confidence,
		DataRequest: intent.DataRequest,
		Scores:      make(map[string]float64, len(intent.Scores)),
		Tone:        string(tone.Dominant),
	}
	for _, p := range input.Parts {
		payload.Parts = append(payload.Parts, p.Text)
	}
	for _, f := range input.Flags {
		payload.Flags = append(payload.Flags, string(f))
	}
	for cat, score := range intent.Scores {
		payload.Scores[string(cat)] = score
	}
	return c.JSON(http.StatusOK, payload)
}

type uploadDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) uploadDocument(c echo.Context) error {
	sessionUID := c.Param("session")

	var req uploadDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	doc, err := s.Store.CreateDocument(c.Request().Context(), &store.CreateDocument{
		SessionUID: sessionUID,
		Title:      req.Title,
		Content:    req.Content,
		Sections:   extractSections(req.Content),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store document")
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"uid":      doc.UID,
		"title":    doc.Title,
		"sections": doc.Sections,
	})
}

func (s *Server) listTurns(c echo.Context) error {
	turns, err := s.Store.ListConversationTurns(c.Request().Context(), &store.FindConversationTurns{
		SessionUID: c.Param("session"),
		Limit:      50,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list turns")
	}

	type turnPayload struct {
		Question  string `json:"question"`
		Pattern   string `json:"pattern"`
		Tone      string `json:"tone"`
		Tier      string `json:"tier"`
		CreatedTs int64  `json:"created_ts"`
	}
	payload := make([]turnPayload, 0, len(turns))
	for _, t := range turns {
		payload = append(payload, turnPayload{
			Question:  t.Question,
			Pattern:   t.Pattern,
			Tone:      t.Tone,
			Tier:      t.Tier,
			CreatedTs: t.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, payload)
}

func (s *Server) clearTurns(c echo.Context) error {
	if err := s.Store.DeleteConversationTurns(c.Request().Context(), c.Param("session")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear turns")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.String(),
	})
}

// extractSections pulls top-level headings out of the document text:
// markdown headings plus short ALL-CAPS or numbered lines, the common
// shapes of contract section titles.
func extractSections(content string) []string {
	var sections []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 80 {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#"):
			sections = append(sections, strings.TrimSpace(strings.TrimLeft(line, "#")))
		case isNumberedHeading(line):
			sections = append(sections, line)
		case line == strings.ToUpper(line) && len(strings.Fields(line)) <= 6 && containsLetter(line):
			sections = append(sections, line)
		}
		if len(sections) >= 50 {
			break
		}
	}
	return sections
}

func isNumberedHeading(line string) bool {
	if len(line) < 3 || line[0] < '0' || line[0] > '9' {
		return false
	}
	rest := line
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}
	return strings.HasPrefix(rest, ". ") || strings.HasPrefix(rest, ") ")
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			return true
		}
	}
	return false
}
