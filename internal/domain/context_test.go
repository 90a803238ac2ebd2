package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadlineContextEviction(t *testing.T) {
	ctx := NewHeadlineContext(3)

	for i := 1; i <= 5; i++ {
		ctx.Append(i, "h")
	}

	assert.Equal(t, 3, ctx.Len())

	entries := ctx.Entries()
	assert.Equal(t, []int{3, 4, 5}, []int{entries[0].SlideIndex, entries[1].SlideIndex, entries[2].SlideIndex})
}

func TestHeadlineContextOrdering(t *testing.T) {
	ctx := NewHeadlineContext(10)

	ctx.Append(2, "first")
	ctx.Append(5, "second")

	entries := ctx.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Headline)
	assert.Equal(t, "second", entries[1].Headline)
}

func TestHeadlineContextMinimumCapacity(t *testing.T) {
	ctx := NewHeadlineContext(0)
	assert.Equal(t, 1, ctx.Capacity())

	ctx.Append(1, "a")
	ctx.Append(2, "b")

	entries := ctx.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].SlideIndex)
}

func TestIsHeaderLayout(t *testing.T) {
	tests := []struct {
		layout string
		want   bool
	}{
		{"HEADER", true},
		{"Header Section", true},
		{"header_divider", true},
		{"Title and Content", false},
		{"Content with HEADER", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHeaderLayout(tt.layout))
		})
	}
}

func TestSlideMapOrdering(t *testing.T) {
	m := NewSlideMap()
	m.Add(&SlideRecord{Index: 3, IsContentSlide: true})
	m.Add(&SlideRecord{Index: 1, IsContentSlide: false})
	m.Add(&SlideRecord{Index: 2, IsContentSlide: true})

	assert.Equal(t, []int{1, 2, 3}, m.Indices())
	assert.Equal(t, []int{2, 3}, m.ContentIndices())

	records := m.Records()
	assert.Equal(t, 1, records[0].Index)
	assert.Equal(t, 3, records[2].Index)
}
