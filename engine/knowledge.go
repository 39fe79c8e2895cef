package engine

import "strings"

// Small built-in knowledge base used by the general legal and document
// patterns when no generated answer is available. Content quality is not
// the point here; shape and coverage are.

type topicKnowledge struct {
	Keywords    []string
	GeneralRule string
	Application string
}

var topicKnowledgeBase = []topicKnowledge{
	{
		Keywords:    []string{"payment", "pay", "fee", "cost", "invoice"},
		GeneralRule: "Payment terms usually specify amounts, due dates and acceptable payment methods, along with late-payment consequences.",
		Application: "In practice: set up payment tracking, confirm invoicing procedures and ensure compliance with the stated payment schedule.",
	},
	{
		Keywords:    []string{"termination", "terminate", "end", "expire", "cancel"},
		GeneralRule: "Termination clauses typically outline the conditions for ending the agreement, required notice periods and wind-down obligations.",
		Application: "In practice: follow notice requirements exactly, document the reasons for termination and plan wind-down procedures in advance.",
	},
	{
		Keywords:    []string{"liability", "damages", "responsible", "indemnification"},
		GeneralRule: "Liability provisions often include limitations, exclusions and indemnification terms; establishing liability requires duty, breach, causation and damages.",
		Application: "In practice: consider insurance coverage, include limitation-of-liability clauses where permissible and implement risk management procedures.",
	},
	{
		Keywords:    []string{"breach", "violation", "default"},
		GeneralRule: "Contract breaches can be material or minor; remedies may include damages, specific performance or termination depending on severity.",
		Application: "In practice: document any breach immediately, attempt resolution through communication first and preserve evidence.",
	},
	{
		Keywords:    []string{"confidential", "non-disclosure", "nda"},
		GeneralRule: "Confidentiality provisions establish obligations to protect sensitive information, define what counts as confidential and set disclosure carve-outs.",
		Application: "In practice: mark confidential materials, restrict access on a need-to-know basis and track disclosure obligations.",
	},
	{
		Keywords:    []string{"intellectual property", "ip", "patent", "copyright", "license"},
		GeneralRule: "IP clauses address ownership, licensing and protection of intellectual property rights, including improvements and derivatives.",
		Application: "In practice: clarify ownership of pre-existing and newly created IP, and record any license grants and their scope.",
	},
	{
		Keywords:    []string{"material transfer", "mta", "research"},
		GeneralRule: "Material transfer agreements govern the exchange of research materials, typically restricting use to research purposes and addressing rights to derivatives and publications.",
		Application: "In practice: check permitted-use language, publication review requirements and ownership of modifications before sharing materials.",
	},
	{
		Keywords:    []string{"governing law", "jurisdiction", "dispute", "arbitration"},
		GeneralRule: "Governing-law and dispute-resolution provisions specify which jurisdiction's laws apply and whether disputes go to negotiation, mediation, arbitration or court.",
		Application: "In practice: note the selected forum and escalation steps, and calendar any mandatory pre-suit negotiation windows.",
	},
}

// fallbackRule is used when no topic keyword fires.
var fallbackRule = topicKnowledge{
	GeneralRule: "Contract law generally requires parties to act in good faith and deal fairly with each other; the specific written terms control, with general legal principles as the framework.",
	Application: "In practice: document everything, communicate clearly with all parties and seek legal advice when uncertain about rights or obligations.",
}

// lookupTopic returns the knowledge entry matching the question, or the
// generic fallback.
func lookupTopic(lower string) topicKnowledge {
	for _, t := range topicKnowledgeBase {
		if containsAny(lower, t.Keywords) {
			return t
		}
	}
	return fallbackRule
}

// Plain-language explanations of common terms, used by the document
// pattern's Plain English section.
var termExplanations = []struct {
	Term        string
	Explanation string
}{
	{"liability", "Liability refers to legal responsibility: who is on the hook if something goes wrong."},
	{"indemnification", "Indemnification means one party agrees to protect the other from certain losses or legal claims."},
	{"breach", "A breach occurs when someone does not fulfill their obligations under the contract."},
	{"termination", "Termination is how and when the contract can be ended by either party."},
	{"consideration", "Consideration is what each party gives or receives in exchange, such as money or services."},
	{"force majeure", "Force majeure covers unforeseeable events, like natural disasters, that prevent contract performance."},
	{"warranty", "A warranty is a promise or guarantee about the quality or condition of something."},
	{"covenant", "A covenant is a formal promise to do or not do something."},
	{"confidentiality", "Confidentiality obligations restrict how the parties may use or share sensitive information."},
}

// Generic document-navigation suggestions. The suggestion generator
// prefers document-aware entries and falls back to these.
var commonSuggestions = []string{
	"What are the key terms and conditions in this agreement?",
	"What are the main obligations for each party?",
	"Are there any termination clauses I should be aware of?",
	"What are the payment terms and conditions?",
	"Are there any liability limitations or exclusions?",
	"What intellectual property rights are addressed?",
	"Are there any confidentiality or non-disclosure provisions?",
	"What are the dispute resolution mechanisms?",
}

// suggestionTriggers map document vocabulary to targeted suggestions.
var suggestionTriggers = []struct {
	Keywords   []string
	Suggestion string
}{
	{[]string{"payment", "fee"}, "What are the payment terms and schedule?"},
	{[]string{"termination", "terminate"}, "Under what conditions can this agreement be terminated?"},
	{[]string{"liability", "damages"}, "What liability protections are included?"},
	{[]string{"intellectual property", "ip "}, "How are intellectual property rights handled?"},
	{[]string{"confidential", "non-disclosure"}, "What confidentiality obligations are specified?"},
	{[]string{"material transfer", "mta"}, "What are the permitted uses of the transferred materials?"},
}

// suggestFromDocument builds up to max suggestions, preferring entries
// triggered by the document's own vocabulary.
func suggestFromDocument(doc *DocumentContext, max int) []string {
	if max <= 0 {
		max = 3
	}

	var out []string
	if doc != nil {
		content := strings.ToLower(doc.Text)
		for _, t := range suggestionTriggers {
			if len(out) >= max {
				break
			}
			if containsAny(content, t.Keywords) {
				out = append(out, t.Suggestion)
			}
		}
	}
	for _, s := range commonSuggestions {
		if len(out) >= max {
			break
		}
		duplicate := false
		for _, existing := range out {
			if existing == s {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, s)
		}
	}
	return out
}
