package page

import (
	"io"
	"time"
)

// Document is a quiz page.
type Document interface {
	// QuestionBlocks returns the question blocks in document order.
	QuestionBlocks() []Block
	// ShowBanner creates or updates the banner with b.ID.
	ShowBanner(b Banner)
	// RemoveBanner removes the banner with the given id, if present.
	RemoveBanner(id string)
	// Render writes the current page as HTML.
	Render(w io.Writer) error
	// Mutations returns every change made to the page so far.
	Mutations() []Mutation
}

// Block is one question block.
type Block interface {
	// Index is the 0-based position of the block in the document.
	Index() int
	// Heading returns the raw text of the question heading.
	Heading() string
	// Rows returns the answer rows of the block body.
	Rows() []Row
	// Controls returns every selectable control of the block.
	Controls() []Control
	// MarkHeading prefixes the heading text with marker.
	MarkHeading(marker string)
	// SetStyle sets one inline style property on the block element.
	SetStyle(property, value string)
	// SetTooltip sets the block's title attribute.
	SetTooltip(text string)
}

// Row is one answer row.
type Row interface {
	// Text is the answer's display text.
	Text() string
	// Control is the row's selectable control, or nil.
	Control() Control
}

// Control is a radio button or checkbox.
type Control interface {
	Value() string
	Type() string
	Checked() bool
	// Select marks the control as checked.
	Select()
	// DispatchChange notifies page listeners that the control changed.
	DispatchChange()
	// HighlightRow applies styles to the row enclosing the control.
	HighlightRow(styles ...Style)
}

// Style is one inline CSS declaration.
type Style struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Banner is the status banner shown on the page.
type Banner struct {
	ID    string
	Text  string
	Style []Style
	// DismissAfter removes the banner after the given time once it is shown
	// in a live page. Zero keeps it until it is replaced.
	DismissAfter time.Duration
}
