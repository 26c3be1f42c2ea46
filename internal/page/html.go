package page

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/quizsolve/internal/config"
)

// HTMLDocument implements Document on a parsed HTML tree.
type HTMLDocument struct {
	doc       *goquery.Document
	selectors config.Selectors
	log       *MutationLog
	blocks    []*htmlBlock
}

var _ Document = (*HTMLDocument)(nil)

// Parse reads an HTML page and locates its question blocks with sel.
func Parse(r io.Reader, sel config.Selectors) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	d := &HTMLDocument{doc: doc, selectors: sel, log: &MutationLog{}}
	doc.Find(sel.Block).Each(func(i int, s *goquery.Selection) {
		d.blocks = append(d.blocks, newBlock(d, i, s))
	})
	return d, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(src string, sel config.Selectors) (*HTMLDocument, error) {
	return Parse(strings.NewReader(src), sel)
}

// QuestionBlocks implements Document.
func (d *HTMLDocument) QuestionBlocks() []Block {
	out := make([]Block, len(d.blocks))
	for i, b := range d.blocks {
		out[i] = b
	}
	return out
}

// ShowBanner implements Document. The banner is appended to <body> the
// first time and updated in place afterwards.
func (d *HTMLDocument) ShowBanner(b Banner) {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return
	}

	banner := d.doc.Find("#" + b.ID)
	if banner.Length() == 0 {
		node := &html.Node{
			Type: html.ElementNode,
			Data: "div",
			Attr: []html.Attribute{{Key: "id", Val: b.ID}},
		}
		body.Nodes[0].AppendChild(node)
		banner = goquery.NewDocumentFromNode(node).Selection
	}
	setText(banner.Nodes[0], b.Text)
	banner.SetAttr("style", formatStyles(b.Style))
	dismiss := b.DismissAfter.Milliseconds()
	if dismiss > 0 {
		banner.SetAttr("data-dismiss-after", strconv.FormatInt(dismiss, 10))
	} else {
		banner.RemoveAttr("data-dismiss-after")
	}

	d.log.Append(Mutation{
		Op: OpShowBanner, Block: -1, Control: -1,
		Name: b.ID, Value: b.Text, Styles: b.Style, DismissMs: dismiss,
	})
}

// RemoveBanner implements Document.
func (d *HTMLDocument) RemoveBanner(id string) {
	banner := d.doc.Find("#" + id)
	if banner.Length() == 0 {
		return
	}
	banner.Remove()
	d.log.Append(Mutation{Op: OpRemoveBanner, Block: -1, Control: -1, Name: id})
}

// Render implements Document.
func (d *HTMLDocument) Render(w io.Writer) error {
	if err := html.Render(w, d.doc.Nodes[0]); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

// Mutations implements Document.
func (d *HTMLDocument) Mutations() []Mutation {
	return d.log.Entries()
}

// Log exposes the mutation log.
func (d *HTMLDocument) Log() *MutationLog {
	return d.log
}

// Find runs a CSS selector against the whole page.
func (d *HTMLDocument) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Selectors returns the selectors the document was parsed with.
func (d *HTMLDocument) Selectors() config.Selectors {
	return d.selectors
}

type htmlBlock struct {
	doc      *HTMLDocument
	index    int
	sel      *goquery.Selection
	controls []*htmlControl
}

func newBlock(d *HTMLDocument, index int, s *goquery.Selection) *htmlBlock {
	b := &htmlBlock{doc: d, index: index, sel: s}
	s.Find(d.selectors.Control).Each(func(i int, c *goquery.Selection) {
		b.controls = append(b.controls, &htmlControl{block: b, index: i, sel: c})
	})
	return b
}

func (b *htmlBlock) Index() int { return b.index }

func (b *htmlBlock) heading() *goquery.Selection {
	return b.sel.Find(b.doc.selectors.Heading).First()
}

func (b *htmlBlock) Heading() string {
	return b.heading().Text()
}

func (b *htmlBlock) Rows() []Row {
	scope := b.sel
	if b.doc.selectors.Body != "" {
		if body := b.sel.Find(b.doc.selectors.Body).First(); body.Length() > 0 {
			scope = body
		}
	}

	var rows []Row
	scope.Find(b.doc.selectors.Row).Each(func(_ int, r *goquery.Selection) {
		rows = append(rows, &htmlRow{block: b, sel: r})
	})
	return rows
}

func (b *htmlBlock) Controls() []Control {
	out := make([]Control, len(b.controls))
	for i, c := range b.controls {
		out[i] = c
	}
	return out
}

func (b *htmlBlock) MarkHeading(marker string) {
	h := b.heading()
	if h.Length() == 0 {
		return
	}
	node := h.Nodes[0]
	node.InsertBefore(&html.Node{Type: html.TextNode, Data: marker}, node.FirstChild)
	b.doc.log.Append(Mutation{Op: OpMarkHeading, Block: b.index, Control: -1, Value: marker})
}

func (b *htmlBlock) SetStyle(property, value string) {
	setStyle(b.sel, Style{Property: property, Value: value})
	b.doc.log.Append(Mutation{
		Op: OpSetStyle, Block: b.index, Control: -1,
		Styles: []Style{{Property: property, Value: value}},
	})
}

func (b *htmlBlock) SetTooltip(text string) {
	b.sel.SetAttr("title", text)
	b.doc.log.Append(Mutation{Op: OpSetTooltip, Block: b.index, Control: -1, Value: text})
}

// control returns the block control wrapping node, or nil.
func (b *htmlBlock) control(node *html.Node) *htmlControl {
	for _, c := range b.controls {
		if c.sel.Nodes[0] == node {
			return c
		}
	}
	return nil
}

type htmlRow struct {
	block *htmlBlock
	sel   *goquery.Selection
}

func (r *htmlRow) Text() string {
	if label := r.block.doc.selectors.Label; label != "" {
		if l := r.sel.Find(label).First(); l.Length() > 0 {
			return l.Text()
		}
	}
	return r.sel.Text()
}

func (r *htmlRow) Control() Control {
	found := r.sel.Find(r.block.doc.selectors.Control).First()
	if found.Length() == 0 {
		return nil
	}
	if c := r.block.control(found.Nodes[0]); c != nil {
		return c
	}
	return nil
}

type htmlControl struct {
	block *htmlBlock
	index int
	sel   *goquery.Selection
}

func (c *htmlControl) Value() string {
	return c.sel.AttrOr("value", "")
}

func (c *htmlControl) Type() string {
	return strings.ToLower(c.sel.AttrOr("type", ""))
}

func (c *htmlControl) Checked() bool {
	_, ok := c.sel.Attr("checked")
	return ok
}

// Select checks the control. Checking a radio button unchecks the other
// radio buttons of its group.
func (c *htmlControl) Select() {
	if c.Type() == "radio" {
		if name, ok := c.sel.Attr("name"); ok && name != "" {
			c.block.doc.doc.Find(`input[type="radio"]`).Each(func(_ int, s *goquery.Selection) {
				if s.AttrOr("name", "") == name && s.Nodes[0] != c.sel.Nodes[0] {
					s.RemoveAttr("checked")
				}
			})
		}
	}
	c.sel.SetAttr("checked", "checked")
	c.block.doc.log.Append(Mutation{Op: OpSelect, Block: c.block.index, Control: c.index, Value: c.Value()})
}

// DispatchChange records a change event. A static document has no
// listeners, so the event only takes effect when the log is replayed.
func (c *htmlControl) DispatchChange() {
	c.block.doc.log.Append(Mutation{Op: OpDispatch, Block: c.block.index, Control: c.index, Name: "change"})
}

func (c *htmlControl) HighlightRow(styles ...Style) {
	row := c.sel.Closest(c.block.doc.selectors.Row)
	if row.Length() == 0 {
		row = c.sel.Parent()
	}
	setStyle(row, styles...)
	c.block.doc.log.Append(Mutation{Op: OpHighlightRow, Block: c.block.index, Control: c.index, Styles: styles})
}

// setText replaces the children of n with a single text node.
func setText(n *html.Node, text string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
