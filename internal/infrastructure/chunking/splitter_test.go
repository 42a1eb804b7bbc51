package chunking

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokenizer tokenizes on whitespace so token counts and windows are
// predictable without a real BPE vocabulary.
type fakeTokenizer struct {
	vocab      map[string]int
	words      []string
	encodeErr  error
	encodeCall int
}

func newFakeTokenizer() *fakeTokenizer {
	return &fakeTokenizer{vocab: map[string]int{}}
}

func (f *fakeTokenizer) Encode(text string) ([]int, error) {
	f.encodeCall++
	if f.encodeErr != nil {
		return nil, f.encodeErr
	}
	fields := strings.Fields(text)
	ids := make([]int, 0, len(fields))
	for _, w := range fields {
		id, ok := f.vocab[w]
		if !ok {
			id = len(f.words)
			f.vocab[w] = id
			f.words = append(f.words, w)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeTokenizer) Decode(ids []int) (string, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = f.words[id]
	}
	return strings.Join(parts, " "), nil
}

func collectNotices(dst *[]Notice) Option {
	return WithNoticeFunc(func(n Notice) { *dst = append(*dst, n) })
}

func mustSplitter(t *testing.T, maxSize, overlap int, opts ...Option) *Splitter {
	t.Helper()
	s, err := NewSplitter(maxSize, overlap, opts...)
	require.NoError(t, err)
	return s
}

func TestNewSplitterValidation(t *testing.T) {
	t.Run("non-positive max size fails fast", func(t *testing.T) {
		_, err := NewSplitter(0, 0)
		require.Error(t, err)
		_, err = NewSplitter(-5, 0)
		require.Error(t, err)
	})

	t.Run("oversized overlap is clamped and reported", func(t *testing.T) {
		var notices []Notice
		s := mustSplitter(t, 100, 100, collectNotices(&notices))
		assert.Equal(t, 50, s.overlap)
		require.Len(t, notices, 1)
		assert.Equal(t, NoticeConfigDegraded, notices[0].Kind)
	})

	t.Run("negative overlap becomes zero", func(t *testing.T) {
		s := mustSplitter(t, 100, -3)
		assert.Equal(t, 0, s.overlap)
	})
}

func TestParseStrategy(t *testing.T) {
	for name, want := range map[string]Strategy{
		"":              StrategyParagraph,
		"paragraph":     StrategyParagraph,
		"sentence":      StrategySentence,
		"hierarchical":  StrategyHierarchical,
		"first_section": StrategyFirstSection,
	} {
		got, err := ParseStrategy(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseStrategy("semantic")
	require.Error(t, err)
}

func TestSplitShortTextIsIdentity(t *testing.T) {
	s := mustSplitter(t, 250, 10)
	assert.Equal(t, []string{"Hello world."}, s.Split("Hello world."))
}

func TestSplitEmptyInput(t *testing.T) {
	s := mustSplitter(t, 100, 10)
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\t  "))
}

func TestSplitTwoParagraphs(t *testing.T) {
	s := mustSplitter(t, 15, 0)
	got := s.Split("Para one.\n\nPara two.")
	assert.Equal(t, []string{"Para one.", "Para two."}, got)
}

func TestSplitOversizedParagraphCharacterWindows(t *testing.T) {
	paragraph := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit sed do ", 9)
	paragraph = paragraph[:500]
	s := mustSplitter(t, 150, 20)

	chunks := s.Split(paragraph)
	require.Len(t, chunks, 4)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 150, "chunk %d", i)
		assert.NotEmpty(t, chunk)
		assert.False(t, strings.HasPrefix(chunk, " "), "chunk %d starts with whitespace", i)
	}
	// Consecutive windows share at most the configured overlap.
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, commonOverlap(chunks[i-1], chunks[i]), 20)
	}
}

// commonOverlap measures the longest suffix of a that is a prefix of b.
func commonOverlap(a, b string) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(a, b[:n]) {
			return n
		}
	}
	return 0
}

func TestSplitCoverageWithoutOverlap(t *testing.T) {
	doc := "First paragraph with words.\n\n" +
		strings.Repeat("filler text and more filler here. ", 12) + "\n\n" +
		"Last paragraph."
	s := mustSplitter(t, 80, 0)

	chunks := s.Split(doc)
	require.NotEmpty(t, chunks)

	// With zero overlap every non-whitespace character survives in order.
	joined := strings.Join(chunks, "")
	for _, part := range strings.Fields(doc) {
		assert.Contains(t, joined, part)
	}
}

func TestSplitSentenceStrategyPacksGreedily(t *testing.T) {
	s := mustSplitter(t, 30, 0, WithStrategy(StrategySentence))
	got := s.Split("One two. Three four. Five six seven eight nine ten eleven. Tail.")
	require.NotEmpty(t, got)
	assert.Equal(t, "One two. Three four.", got[0])
	for _, chunk := range got {
		assert.LessOrEqual(t, len([]rune(chunk)), 30)
	}
}

func TestSplitSentenceStrategyDegenerateFallsBackToWindows(t *testing.T) {
	s := mustSplitter(t, 10, 2, WithStrategy(StrategySentence))
	got := s.Split("abcdefghijklmnopqrstuvwxyz")
	require.Greater(t, len(got), 1)
	for _, chunk := range got {
		assert.LessOrEqual(t, len([]rune(chunk)), 10)
	}
}

func TestSplitHierarchicalMergesSmallSections(t *testing.T) {
	doc := "# A\nalpha body\n\n## B\nbeta body\n\n### C\ngamma body"
	s := mustSplitter(t, 500, 0, WithStrategy(StrategyHierarchical))

	got := s.Split(doc)
	require.Len(t, got, 1)
	for _, heading := range []string{"# A", "## B", "### C"} {
		assert.Contains(t, got[0], heading)
	}
	assert.Less(t, strings.Index(got[0], "# A"), strings.Index(got[0], "## B"))
	assert.Less(t, strings.Index(got[0], "## B"), strings.Index(got[0], "### C"))
}

func TestSplitHierarchicalWithoutHeadingsFallsBack(t *testing.T) {
	s := mustSplitter(t, 15, 0, WithStrategy(StrategyHierarchical))
	got := s.Split("Para one.\n\nPara two.")
	assert.Equal(t, []string{"Para one.", "Para two."}, got)
}

func TestSplitFirstSectionStrategy(t *testing.T) {
	t.Run("emits the lead before the first heading", func(t *testing.T) {
		s := mustSplitter(t, 100, 0, WithStrategy(StrategyFirstSection))
		got := s.Split("the introduction\n\n# Rest\nignored body")
		assert.Equal(t, []string{"the introduction"}, got)
	})

	t.Run("whole document when it opens with a heading", func(t *testing.T) {
		s := mustSplitter(t, 100, 0, WithStrategy(StrategyFirstSection))
		got := s.Split("# Title\nbody")
		assert.Equal(t, []string{"# Title\nbody"}, got)
	})

	t.Run("oversized lead is windowed", func(t *testing.T) {
		s := mustSplitter(t, 20, 5, WithStrategy(StrategyFirstSection))
		got := s.Split(strings.Repeat("intro words here ", 10) + "\n# Rest\nbody")
		require.Greater(t, len(got), 1)
		for _, chunk := range got {
			assert.LessOrEqual(t, len([]rune(chunk)), 20)
			assert.NotContains(t, chunk, "# Rest")
		}
	})
}

func TestSplitTokenWindows(t *testing.T) {
	tok := newFakeTokenizer()
	words := make([]string, 25)
	for i := range words {
		words[i] = string(rune('a'+i)) + "w"
	}
	text := "intro.\n\n" + strings.Join(words, " ")

	var notices []Notice
	s := mustSplitter(t, 10, 2, WithTokenizer(tok), collectNotices(&notices))
	chunks := s.Split(text)

	// The second paragraph is 25 tokens: window 10, step 8 gives windows at
	// 0, 8 and 16, so one intact paragraph plus three decoded windows.
	require.Len(t, chunks, 4)
	assert.Equal(t, "intro.", chunks[0])
	for _, chunk := range chunks {
		ids, err := tok.Encode(chunk)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(ids), 10)
	}
	// Adjacent windows share exactly the two overlap tokens.
	first := strings.Fields(chunks[1])
	second := strings.Fields(chunks[2])
	assert.Equal(t, first[len(first)-2:], second[:2])
	assert.Empty(t, notices)
}

func TestMeasureFallsBackWhenEncodeFails(t *testing.T) {
	tok := newFakeTokenizer()
	tok.encodeErr = errors.New("model gone")

	var notices []Notice
	s := mustSplitter(t, 250, 10, WithTokenizer(tok), collectNotices(&notices))
	got := s.Split("Hello world.")

	assert.Equal(t, []string{"Hello world."}, got)
	require.NotEmpty(t, notices)
	assert.Equal(t, NoticeMeasurementFallback, notices[0].Kind)
}

func TestWindowCapTruncatesPathologicalConfigs(t *testing.T) {
	var notices []Notice
	// overlap = maxSize-1 gives step 1: the cap must end the loop.
	s := mustSplitter(t, 2, 1, collectNotices(&notices))
	got := s.Split(strings.Repeat("x", 5000))

	assert.Len(t, got, maxWindows)
	require.NotEmpty(t, notices)
	assert.Equal(t, NoticeWindowCapExceeded, notices[len(notices)-1].Kind)
}

func TestSplitNeverReturnsEmptyChunks(t *testing.T) {
	inputs := []string{
		"a",
		"word. ",
		"one\n\n\n\ntwo",
		strings.Repeat("space  heavy   text ", 40),
		"# H\n\n\n# H2\n\n",
	}
	for _, strategy := range []Strategy{StrategyParagraph, StrategySentence, StrategyHierarchical, StrategyFirstSection} {
		s := mustSplitter(t, 12, 3, WithStrategy(strategy))
		for _, input := range inputs {
			for _, chunk := range s.Split(input) {
				assert.NotEmpty(t, strings.TrimSpace(chunk), "strategy %s input %q", strategy, input)
			}
		}
	}
}
