// Package richtext renders Prismic structured text as HTML.
//
// The renderer builds golang.org/x/net/html node trees and serializes them,
// so text content is always escaped. Embed blocks are the exception: their
// oEmbed markup is injected as-is.
package richtext

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Block types.
const (
	Heading1     = "heading1"
	Heading2     = "heading2"
	Heading3     = "heading3"
	Heading4     = "heading4"
	Heading5     = "heading5"
	Heading6     = "heading6"
	Paragraph    = "paragraph"
	Preformatted = "preformatted"
	ListItem     = "list-item"
	OListItem    = "o-list-item"
	Image        = "image"
	Embed        = "embed"
)

// Span types.
const (
	Strong    = "strong"
	Em        = "em"
	Hyperlink = "hyperlink"
	Label     = "label"
)

// RichText is an ordered sequence of blocks.
type RichText []Block

// Block is one structured-text block.
type Block struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Spans []Span `json:"spans"`
	Label string `json:"label,omitempty"`

	// image
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`

	// embed
	Oembed *Oembed `json:"oembed,omitempty"`
}

// Dimensions of an image block.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Oembed payload of an embed block.
type Oembed struct {
	Type     string `json:"type"`
	EmbedURL string `json:"embed_url"`
	HTML     string `json:"html"`
}

// Span marks [Start, End) of a block's text, counted in Unicode code points.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries hyperlink targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	ID       string `json:"id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
	Label    string `json:"label,omitempty"`
}

// LinkResolver maps a link to another CMS document to a site URL.
type LinkResolver func(d SpanData) string

type config struct {
	resolve LinkResolver
}

// Option configures rendering.
type Option func(*config)

// WithLinkResolver sets how document links are turned into URLs.
func WithLinkResolver(r LinkResolver) Option {
	return func(c *config) { c.resolve = r }
}

// AsText joins the text of every block with a single space.
func AsText(rt RichText) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, " ")
}

// AsHTML renders rt as an HTML fragment.
func AsHTML(rt RichText, opts ...Option) string {
	var buf bytes.Buffer
	_ = Render(&buf, rt, opts...)
	return buf.String()
}

// Component returns a templ.Component rendering rt.
func Component(rt RichText, opts ...Option) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Render(w, rt, opts...)
	})
}

// Render writes rt as HTML to w.
func Render(w io.Writer, rt RichText, opts ...Option) error {
	cfg := config{resolve: defaultResolver}
	for _, opt := range opts {
		opt(&cfg)
	}
	for _, n := range cfg.nodes(rt) {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

func defaultResolver(d SpanData) string {
	if d.UID == "" {
		return ""
	}
	return "/" + d.UID
}

func (c *config) nodes(rt RichText) []*html.Node {
	var out []*html.Node
	var list *html.Node
	for _, b := range rt {
		switch b.Type {
		case ListItem, OListItem:
			want := atom.Ul
			if b.Type == OListItem {
				want = atom.Ol
			}
			if list == nil || list.DataAtom != want {
				list = element(want)
				out = append(out, list)
			}
			li := element(atom.Li)
			c.appendInline(li, b)
			list.AppendChild(li)
			continue
		}
		list = nil
		if n := c.block(b); n != nil {
			out = append(out, n)
		}
	}
	return out
}

var headings = map[string]atom.Atom{
	Heading1: atom.H1,
	Heading2: atom.H2,
	Heading3: atom.H3,
	Heading4: atom.H4,
	Heading5: atom.H5,
	Heading6: atom.H6,
}

func (c *config) block(b Block) *html.Node {
	if a, ok := headings[b.Type]; ok {
		n := element(a)
		c.appendInline(n, b)
		return n
	}
	switch b.Type {
	case Paragraph:
		n := element(atom.P)
		if b.Label != "" {
			n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: b.Label})
		}
		c.appendInline(n, b)
		return n
	case Preformatted:
		n := element(atom.Pre)
		n.AppendChild(&html.Node{Type: html.TextNode, Data: b.Text})
		return n
	case Image:
		src := SafeURL(b.URL)
		if src == "" {
			return nil
		}
		p := element(atom.P)
		p.Attr = append(p.Attr, html.Attribute{Key: "class", Val: "block-img"})
		img := element(atom.Img)
		img.Attr = append(img.Attr,
			html.Attribute{Key: "src", Val: src},
			html.Attribute{Key: "alt", Val: b.Alt},
			html.Attribute{Key: "loading", Val: "lazy"},
		)
		p.AppendChild(img)
		return p
	case Embed:
		if b.Oembed == nil {
			return nil
		}
		div := element(atom.Div)
		div.Attr = append(div.Attr,
			html.Attribute{Key: "data-oembed", Val: b.Oembed.EmbedURL},
			html.Attribute{Key: "data-oembed-type", Val: b.Oembed.Type},
		)
		div.AppendChild(&html.Node{Type: html.RawNode, Data: b.Oembed.HTML})
		return div
	default:
		return nil
	}
}

// appendInline renders b.Text with its spans as children of parent.
func (c *config) appendInline(parent *html.Node, b Block) {
	runes := []rune(b.Text)
	c.appendSpans(parent, runes, 0, len(runes), normalizeSpans(b.Spans, len(runes)))
}

// normalizeSpans drops out-of-range spans and orders them by start
// ascending, longest first, so that enclosing spans precede nested ones.
func normalizeSpans(spans []Span, n int) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > n || s.Start >= s.End {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End > out[j].End
	})
	return out
}

func (c *config) appendSpans(parent *html.Node, runes []rune, start, end int, spans []Span) {
	pos := start
	for i := 0; i < len(spans); {
		s := spans[i]
		if s.Start < pos {
			// overlaps an already rendered sibling; clip its head
			s.Start = pos
			if s.Start >= s.End {
				i++
				continue
			}
		}
		j := i + 1
		var inner []Span
		for j < len(spans) && spans[j].Start < s.End {
			child := spans[j]
			if child.End > s.End {
				child.End = s.End
			}
			inner = append(inner, child)
			j++
		}
		appendText(parent, runes[pos:s.Start])
		el := c.spanElement(s)
		parent.AppendChild(el)
		c.appendSpans(el, runes, s.Start, s.End, inner)
		pos = s.End
		i = j
	}
	appendText(parent, runes[pos:end])
}

func (c *config) spanElement(s Span) *html.Node {
	switch s.Type {
	case Strong:
		return element(atom.Strong)
	case Em:
		return element(atom.Em)
	case Hyperlink:
		href := ""
		if s.Data != nil {
			if s.Data.LinkType == "Document" {
				href = c.resolve(*s.Data)
			} else {
				href = SafeURL(s.Data.URL)
			}
		}
		if href == "" {
			return element(atom.Span)
		}
		a := element(atom.A)
		a.Attr = append(a.Attr, html.Attribute{Key: "href", Val: href})
		if s.Data.Target != "" {
			a.Attr = append(a.Attr,
				html.Attribute{Key: "target", Val: s.Data.Target},
				html.Attribute{Key: "rel", Val: "noopener noreferrer"},
			)
		}
		return a
	case Label:
		n := element(atom.Span)
		if s.Data != nil && s.Data.Label != "" {
			n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: s.Data.Label})
		}
		return n
	default:
		return element(atom.Span)
	}
}

// appendText adds text, turning newlines into <br> elements.
func appendText(parent *html.Node, runes []rune) {
	if len(runes) == 0 {
		return
	}
	for i, line := range strings.Split(string(runes), "\n") {
		if i > 0 {
			parent.AppendChild(element(atom.Br))
		}
		if line != "" {
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
	}
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}
