// ABOUTME: Closed enumerations for the answer flow: source labels and next strategies
// ABOUTME: Replaces free-form string tags so every decision point can match exhaustively
package models

// Source labels which strategy last produced (or attempted) a result
type Source string

const (
	// SourceNone - no strategy has run yet
	SourceNone Source = ""

	// SourceNoPDF - no document index has been built
	SourceNoPDF Source = "no_pdf"

	// SourceNoPDFMatch - the index exists but retrieval returned nothing or failed
	SourceNoPDFMatch Source = "no_pdf_match"

	// SourcePDF - answer generated from retrieved document chunks
	SourcePDF Source = "pdf"

	// SourceChat - answer generated by the memory-aware chat model
	SourceChat Source = "chat"

	// SourceWeb - answer summarized from web search results
	SourceWeb Source = "web"
)

// IsValid reports whether s is one of the known source labels.
// SourceNone is valid: it is the state before the first attempt.
func (s Source) IsValid() bool {
	switch s {
	case SourceNone, SourceNoPDF, SourceNoPDFMatch, SourcePDF, SourceChat, SourceWeb:
		return true
	}
	return false
}

// Strategy returns the strategy that emits this source label
func (s Source) Strategy() Strategy {
	switch s {
	case SourceNoPDF, SourceNoPDFMatch, SourcePDF:
		return StrategyPDF
	case SourceChat:
		return StrategyChat
	case SourceWeb:
		return StrategyWeb
	case SourceNone:
		return StrategyDone
	}
	return StrategyDone
}

// String returns the label, or "none" before any attempt
func (s Source) String() string {
	if s == SourceNone {
		return "none"
	}
	return string(s)
}

// Strategy is the router's decision: the next answer path to run, or done
type Strategy string

const (
	StrategyPDF  Strategy = "pdf"
	StrategyChat Strategy = "chat"
	StrategyWeb  Strategy = "web"
	StrategyDone Strategy = "done"
)

// IsValid reports whether s is a known strategy
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyPDF, StrategyChat, StrategyWeb, StrategyDone:
		return true
	}
	return false
}
