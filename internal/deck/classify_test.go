package deck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

type stubDeck struct {
	slides []domain.SlideInfo
	err    error
}

func (s *stubDeck) ListSlides() ([]domain.SlideInfo, error) {
	return s.slides, s.err
}

func TestClassify(t *testing.T) {
	src := &stubDeck{slides: []domain.SlideInfo{
		{LayoutName: "HEADER Section", HasTitlePlaceholder: false},
		{LayoutName: "Title and Content", HasTitlePlaceholder: true},
		{LayoutName: "header divider"},
		{LayoutName: "Two Content", HasTitlePlaceholder: true},
	}}

	slides, err := Classify(src)
	require.NoError(t, err)

	assert.Equal(t, 4, slides.Len())
	assert.Equal(t, []int{2, 4}, slides.ContentIndices())

	header := slides.Get(1)
	assert.False(t, header.IsContentSlide)
	assert.Equal(t, domain.StatusSkipped, header.Status)
	assert.Equal(t, domain.HeaderSlideHeadline, header.HeadlineText)

	content := slides.Get(2)
	assert.True(t, content.IsContentSlide)
	assert.Equal(t, domain.StatusPending, content.Status)
	assert.Empty(t, content.HeadlineText)
	assert.True(t, content.HasTitlePlaceholder)
}

func TestClassifyEmptyDeck(t *testing.T) {
	_, err := Classify(&stubDeck{})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindMalformedDeck))
}

func TestClassifyWrapsSourceError(t *testing.T) {
	cause := errors.New("zip: not a valid archive")
	_, err := Classify(&stubDeck{err: cause})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindMalformedDeck))
	assert.ErrorIs(t, err, cause)
}

func TestManifestSource(t *testing.T) {
	data := []byte(`{
		"filename": "deck.pptx",
		"slides": [
			{"layout_name": "HEADER", "has_title_placeholder": false},
			{"layout_name": "Title and Content", "has_title_placeholder": true}
		]
	}`)

	src, err := NewManifestSource(data)
	require.NoError(t, err)
	assert.Equal(t, "deck.pptx", src.Filename())

	slides, err := src.ListSlides()
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "HEADER", slides[0].LayoutName)
	assert.True(t, slides[1].HasTitlePlaceholder)
}

func TestManifestSourceRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"corrupt json", `{"slides": [`},
		{"no slides", `{"slides": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManifestSource([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindMalformedDeck))
		})
	}
}

func TestValidatePair(t *testing.T) {
	src, err := NewManifestSource([]byte(`{"slides": [{"layout_name": "A"}, {"layout_name": "B"}]}`))
	require.NoError(t, err)

	t.Run("matching pair", func(t *testing.T) {
		warnings, err := ValidatePair(src, 2, "deck.json", "deck.pdf")
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("name mismatch warns", func(t *testing.T) {
		warnings, err := ValidatePair(src, 2, "deck.json", "other.pdf")
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "filename mismatch")
	})

	t.Run("count mismatch is fatal", func(t *testing.T) {
		_, err := ValidatePair(src, 3, "deck.json", "deck.pdf")
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindMalformedDeck))
	})
}
