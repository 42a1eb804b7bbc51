// Package chunking splits long-form text into bounded-size chunks suitable
// for embedding, preferring semantic boundaries (sections, paragraphs,
// sentences) over arbitrary cuts and falling back to an overlapping sliding
// window for units that exceed the size budget.
package chunking

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Strategy selects the top-level chunking algorithm. The choice is fixed at
// construction; every strategy implements the same Split contract.
type Strategy int

const (
	// StrategyParagraph keeps paragraphs whole where possible (default).
	StrategyParagraph Strategy = iota
	// StrategySentence greedily packs sentences up to the budget.
	StrategySentence
	// StrategyHierarchical merges heading-delimited sections up to the budget.
	StrategyHierarchical
	// StrategyFirstSection chunks only the text before the first heading.
	StrategyFirstSection
)

func (s Strategy) String() string {
	switch s {
	case StrategyParagraph:
		return "paragraph"
	case StrategySentence:
		return "sentence"
	case StrategyHierarchical:
		return "hierarchical"
	case StrategyFirstSection:
		return "first_section"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy maps a configuration name onto a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "paragraph":
		return StrategyParagraph, nil
	case "sentence":
		return StrategySentence, nil
	case "hierarchical":
		return StrategyHierarchical, nil
	case "first_section", "first-section":
		return StrategyFirstSection, nil
	default:
		return StrategyParagraph, fmt.Errorf("unknown chunking strategy %q", name)
	}
}

// NoticeKind classifies non-fatal degradations surfaced by the splitter.
type NoticeKind string

const (
	// NoticeConfigDegraded reports an overlap clamped at construction.
	NoticeConfigDegraded NoticeKind = "config_degraded"
	// NoticeMeasurementFallback reports a downgrade to character counting.
	NoticeMeasurementFallback NoticeKind = "measurement_fallback"
	// NoticeWindowCapExceeded reports truncation by the window cap.
	NoticeWindowCapExceeded NoticeKind = "window_cap_exceeded"
)

// Notice is a recoverable degradation. None of these abort a Split call.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Splitter is the chunking engine. It is immutable after construction and
// safe for concurrent use as long as the injected tokenizer is.
type Splitter struct {
	maxSize  int
	overlap  int
	strategy Strategy

	tokenizer Tokenizer
	onNotice  func(Notice)
}

type Option func(*Splitter)

// WithStrategy selects the top-level algorithm (default StrategyParagraph).
func WithStrategy(strategy Strategy) Option {
	return func(s *Splitter) { s.strategy = strategy }
}

// WithTokenizer enables token-based size measurement. Without it the splitter
// measures in runes.
func WithTokenizer(t Tokenizer) Option {
	return func(s *Splitter) { s.tokenizer = t }
}

// WithNoticeFunc installs an observer for recoverable degradations. The
// default logs through slog.
func WithNoticeFunc(fn func(Notice)) Option {
	return func(s *Splitter) { s.onNotice = fn }
}

// NewSplitter validates the size budget and builds a splitter. A non-positive
// maxSize is a programming error and fails construction; a too-large overlap
// is clamped to maxSize/2 and reported as a notice.
func NewSplitter(maxSize, overlap int, opts ...Option) (*Splitter, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunking: max size must be positive, got %d", maxSize)
	}
	if overlap < 0 {
		overlap = 0
	}

	s := &Splitter{
		maxSize:  maxSize,
		overlap:  overlap,
		strategy: StrategyParagraph,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onNotice == nil {
		s.onNotice = logNotice
	}

	if s.overlap >= s.maxSize {
		clamped := s.maxSize / 2
		s.notify(Notice{
			Kind:    NoticeConfigDegraded,
			Message: fmt.Sprintf("overlap %d >= max size %d, clamped to %d", s.overlap, s.maxSize, clamped),
		})
		s.overlap = clamped
	}
	return s, nil
}

// Split chunks one document. Chunks come back in document order, none empty
// or whitespace-only; empty input yields an empty result.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	switch s.strategy {
	case StrategySentence:
		return s.splitSentenceAware(text)
	case StrategyHierarchical:
		return s.splitHierarchical(text)
	case StrategyFirstSection:
		return s.splitFirstSection(text)
	default:
		return s.splitParagraphAware(text)
	}
}

// measure returns the size of text in tokens when a tokenizer is available,
// otherwise in runes. Tokenizer failures downgrade to runes for this call.
func (s *Splitter) measure(text string) int {
	if s.tokenizer != nil {
		tokens, err := s.tokenizer.Encode(text)
		if err == nil {
			return len(tokens)
		}
		s.notify(Notice{
			Kind:    NoticeMeasurementFallback,
			Message: fmt.Sprintf("tokenizer encode failed, measuring by characters: %v", err),
		})
	}
	return utf8.RuneCountInString(text)
}

// splitParagraphAware emits paragraphs whole when they fit and windows the
// oversized ones. Without paragraph structure it degrades to sentence-aware.
func (s *Splitter) splitParagraphAware(text string) []string {
	if s.measure(text) <= s.maxSize {
		return []string{text}
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) <= 1 {
		return s.splitSentenceAware(text)
	}

	var chunks []string
	for _, paragraph := range paragraphs {
		if s.measure(paragraph) <= s.maxSize {
			chunks = append(chunks, paragraph)
			continue
		}
		chunks = append(chunks, s.splitOversized(paragraph)...)
	}
	return chunks
}

// splitSentenceAware greedily accumulates sentences into chunks. Without
// sentence structure it degrades to the character sliding window.
func (s *Splitter) splitSentenceAware(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return s.splitRuneWindows(text)
	}
	return s.packUnits(sentences, " ")
}

// splitHierarchical merges consecutive heading-delimited sections up to the
// budget. Without headings it degrades to paragraph-aware.
func (s *Splitter) splitHierarchical(text string) []string {
	sections := splitSections(text)
	if len(sections) == 0 {
		return s.splitParagraphAware(text)
	}
	return s.packUnits(sections, "\n\n")
}

// splitFirstSection chunks only the span before the first level-1/2 heading,
// or the whole document when that span is empty.
func (s *Splitter) splitFirstSection(text string) []string {
	lead := firstSection(text)
	if lead == "" {
		lead = text
	}
	if s.measure(lead) <= s.maxSize {
		return []string{lead}
	}
	return s.splitOversized(lead)
}

// packUnits is the shared accumulate/flush loop: grow a running chunk while
// the joined candidate fits, flush on overflow, and window any single unit
// that alone exceeds the budget. Flushed chunks are never revisited.
func (s *Splitter) packUnits(units []string, joiner string) []string {
	var chunks []string
	var running string

	for _, unit := range units {
		if running == "" {
			if s.measure(unit) > s.maxSize {
				chunks = append(chunks, s.splitOversized(unit)...)
				continue
			}
			running = unit
			continue
		}

		candidate := running + joiner + unit
		if s.measure(candidate) <= s.maxSize {
			running = candidate
			continue
		}

		chunks = append(chunks, running)
		running = ""
		if s.measure(unit) > s.maxSize {
			chunks = append(chunks, s.splitOversized(unit)...)
			continue
		}
		running = unit
	}

	if running != "" {
		chunks = append(chunks, running)
	}
	return chunks
}

func (s *Splitter) notify(notice Notice) {
	if s.onNotice != nil {
		s.onNotice(notice)
	}
}

func logNotice(notice Notice) {
	slog.Warn("chunking_degraded", "kind", string(notice.Kind), "message", notice.Message)
}
