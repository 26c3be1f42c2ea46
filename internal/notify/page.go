package notify

import (
	"github.com/nao1215/quizsolve/internal/page"
)

var bannerBase = []page.Style{
	{Property: "position", Value: "fixed"},
	{Property: "top", Value: "20px"},
	{Property: "right", Value: "20px"},
	{Property: "z-index", Value: "9999"},
	{Property: "padding", Value: "15px"},
	{Property: "border-radius", Value: "8px"},
	{Property: "font-weight", Value: "bold"},
	{Property: "max-width", Value: "300px"},
	{Property: "box-shadow", Value: "0 4px 12px rgba(0,0,0,0.3)"},
	{Property: "color", Value: "white"},
}

var bannerBackground = map[Kind]string{
	Progress: "#17a2b8",
	Info:     "#17a2b8",
	Success:  "#28a745",
	Error:    "#dc3545",
}

// Page shows statuses as a fixed-position banner on a quiz page. The
// banner element is reused across statuses.
type Page struct {
	doc page.Document
}

// NewPage returns a notifier drawing on doc.
func NewPage(doc page.Document) *Page {
	return &Page{doc: doc}
}

// Show implements Notifier.
func (p *Page) Show(s Status) {
	bg, ok := bannerBackground[s.Kind]
	if !ok {
		bg = bannerBackground[Info]
	}
	styles := make([]page.Style, 0, len(bannerBase)+1)
	styles = append(styles, bannerBase...)
	styles = append(styles, page.Style{Property: "background", Value: bg})

	b := page.Banner{ID: BannerID, Text: s.Text, Style: styles}
	if s.Kind.Terminal() {
		b.DismissAfter = DismissAfter
	}
	p.doc.ShowBanner(b)
}
