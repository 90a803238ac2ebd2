package domain

// HeadlineEntry is one generated headline together with its slide index.
type HeadlineEntry struct {
	SlideIndex int
	Headline   string
}

// HeadlineContext is a fixed-capacity ring buffer of the most recently
// generated headlines. Append evicts the oldest entry once the buffer is
// full, so at most capacity entries are ever retained. Entries are returned
// oldest first, which is the order the headline prompt expects.
type HeadlineContext struct {
	buf   []HeadlineEntry
	start int
	size  int
}

// NewHeadlineContext creates a context window holding at most capacity
// entries. A capacity below 1 is treated as 1.
func NewHeadlineContext(capacity int) *HeadlineContext {
	if capacity < 1 {
		capacity = 1
	}
	return &HeadlineContext{buf: make([]HeadlineEntry, capacity)}
}

// Append records a headline, evicting the oldest entry when full.
func (c *HeadlineContext) Append(slideIndex int, headline string) {
	pos := (c.start + c.size) % len(c.buf)
	c.buf[pos] = HeadlineEntry{SlideIndex: slideIndex, Headline: headline}
	if c.size < len(c.buf) {
		c.size++
	} else {
		c.start = (c.start + 1) % len(c.buf)
	}
}

// Entries returns the retained headlines, oldest first.
func (c *HeadlineContext) Entries() []HeadlineEntry {
	out := make([]HeadlineEntry, 0, c.size)
	for i := 0; i < c.size; i++ {
		out = append(out, c.buf[(c.start+i)%len(c.buf)])
	}
	return out
}

// Len returns the number of retained entries.
func (c *HeadlineContext) Len() int {
	return c.size
}

// Capacity returns the maximum number of retained entries.
func (c *HeadlineContext) Capacity() int {
	return len(c.buf)
}
