// ABOUTME: Router decides which answer strategy runs next from the question and flow state
// ABOUTME: Pure function over closed enumerations; no I/O and no errors
package core

import (
	"strings"

	"github.com/harper/study-agent/internal/config"
	"github.com/harper/study-agent/internal/models"
)

// DefaultFreshnessKeywords route time-sensitive academic questions straight to the web
var DefaultFreshnessKeywords = []string{
	"exam", "admission", "syllabus", "result",
	"neet", "ssc", "jee", "cbse", "education",
	"science", "technology", "research", "study",
	"latest", "update", "current affairs", "exam date", "admit card",
}

const (
	// DefaultNotFoundSentinel is what the document model says when the PDFs lack an answer
	DefaultNotFoundSentinel = "I couldn't find that in your uploaded PDFs."
	// DefaultUncertainPhrase marks a chat answer as a non-answer
	DefaultUncertainPhrase = "i don't know"
)

// Router holds the vocabulary the routing rules match against
type Router struct {
	keywords  []string
	sentinel  string
	uncertain string
}

// NewRouter builds a Router, filling empty vocabulary fields with the defaults
func NewRouter(vocab config.Vocabulary) *Router {
	r := &Router{
		keywords:  DefaultFreshnessKeywords,
		sentinel:  DefaultNotFoundSentinel,
		uncertain: DefaultUncertainPhrase,
	}

	if len(vocab.FreshnessKeywords) > 0 {
		keywords := make([]string, 0, len(vocab.FreshnessKeywords))
		for _, k := range vocab.FreshnessKeywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				keywords = append(keywords, k)
			}
		}
		r.keywords = keywords
	}
	if s := strings.TrimSpace(vocab.NotFoundSentinel); s != "" {
		r.sentinel = s
	}
	if u := strings.TrimSpace(vocab.UncertainPhrase); u != "" {
		r.uncertain = strings.ToLower(u)
	}

	return r
}

var defaultRouter = NewRouter(config.Vocabulary{})

// Route applies the default vocabulary
func Route(question string, state models.FlowState) models.Strategy {
	return defaultRouter.Route(question, state)
}

// Route returns the next strategy for the question given the latest outcome.
// Rules are evaluated in order; the first match wins.
func (r *Router) Route(question string, state models.FlowState) models.Strategy {
	// Web is the terminal edge: its result is accepted unconditionally.
	if state.Source == models.SourceWeb {
		return models.StrategyDone
	}

	if r.IsFreshnessQuestion(question) {
		return models.StrategyWeb
	}

	switch state.Source {
	case models.SourceNone:
		return models.StrategyPDF
	case models.SourceNoPDF, models.SourceNoPDFMatch:
		return models.StrategyChat
	case models.SourcePDF:
		if !state.HasResult() || r.IsNotFound(state.Result) {
			return models.StrategyChat
		}
		return models.StrategyDone
	case models.SourceChat:
		if !state.HasResult() || r.IsUncertain(state.Result) {
			return models.StrategyWeb
		}
		return models.StrategyDone
	}

	return models.StrategyDone
}

// IsFreshnessQuestion reports whether any keyword appears in the lowercased question
func (r *Router) IsFreshnessQuestion(question string) bool {
	lower := strings.ToLower(question)
	for _, k := range r.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether a document answer is exactly the not-found sentinel
func (r *Router) IsNotFound(result string) bool {
	return strings.EqualFold(strings.TrimSpace(result), r.sentinel)
}

// IsUncertain reports whether a chat answer admits it does not know
func (r *Router) IsUncertain(result string) bool {
	return strings.Contains(strings.ToLower(result), r.uncertain)
}

// Sentinel returns the not-found phrase the document prompt instructs the model to use
func (r *Router) Sentinel() string {
	return r.sentinel
}
