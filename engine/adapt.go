package engine

import "strings"

// Word-level replacements, applied only when the response tone differs
// from the register the replacement targets. Replacements are plain
// word swaps so numbers, citations and markdown structure are never
// touched.
var casualReplacements = [][2]string{
	{"Therefore", "So"},
	{"therefore", "so"},
	{"However", "But"},
	{"however", "but"},
	{"pursuant to", "under"},
	{"shall", "will"},
	{"aforementioned", "that"},
	{"herein", "in this document"},
	{"Furthermore", "Also"},
	{"furthermore", "also"},
	{"In addition", "Plus"},
	{"utilize", "use"},
	{"commence", "start"},
	{"terminate the agreement", "end the agreement"},
}

var formalReplacements = [][2]string{
	{"can't", "cannot"},
	{"won't", "will not"},
	{"don't", "do not"},
	{"doesn't", "does not"},
	{"isn't", "is not"},
	{"it's", "it is"},
	{"you're", "you are"},
	{"gonna", "going to"},
	{"wanna", "want to"},
	{"a lot of", "numerous"},
}

var technicalPrefixes = map[string]string{
	SectionGeneralRule:  "From a technical standpoint: ",
	SectionPlainEnglish: "In precise terms: ",
}

// applyTone rewrites section bodies and the rendered content to match
// the detected register. Section names, heading lines, table rows and
// anything containing digits are left intact.
func applyTone(resp *ComposedResponse, tone ToneProfile) {
	var pairs [][2]string
	switch tone.Dominant {
	case ToneCasual, ToneSlang, ToneStartup:
		pairs = casualReplacements
	case ToneFormal, ToneBusiness:
		pairs = formalReplacements
	case ToneTechnical:
		for i, s := range resp.Sections {
			if prefix, ok := technicalPrefixes[s.Name]; ok && !strings.HasPrefix(s.Content, prefix) {
				resp.Sections[i].Content = prefix + s.Content
			}
		}
		return
	default:
		return
	}

	for i, s := range resp.Sections {
		resp.Sections[i].Content = adaptText(s.Content, pairs)
	}
	resp.Content = adaptText(resp.Content, pairs)
}

// adaptText applies the replacement pairs line by line, skipping
// headings, table rows and lines with digits (amounts, dates, section
// citations stay verbatim).
func adaptText(text string, pairs [][2]string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "|") || containsDigit(line) {
			continue
		}
		for _, p := range pairs {
			lines[i] = strings.ReplaceAll(lines[i], p[0], p[1])
		}
	}
	return strings.Join(lines, "\n")
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
