package richtext

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsHTMLParagraphAndHeading(t *testing.T) {
	rt := RichText{
		{Type: Heading2, Text: "Intro"},
		{Type: Paragraph, Text: "Hello <world> & co"},
	}
	got := AsHTML(rt)
	assert.Equal(t, "<h2>Intro</h2><p>Hello &lt;world&gt; &amp; co</p>", got)
}

func TestAsHTMLSpans(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{
			name:  "strong",
			block: Block{Type: Paragraph, Text: "a bold word", Spans: []Span{{Start: 2, End: 6, Type: Strong}}},
			want:  "<p>a <strong>bold</strong> word</p>",
		},
		{
			name: "nested",
			block: Block{Type: Paragraph, Text: "bold italic text", Spans: []Span{
				{Start: 5, End: 11, Type: Em},
				{Start: 0, End: 16, Type: Strong},
			}},
			want: "<p><strong>bold <em>italic</em> text</strong></p>",
		},
		{
			name: "hyperlink with target",
			block: Block{Type: Paragraph, Text: "see docs", Spans: []Span{
				{Start: 4, End: 8, Type: Hyperlink, Data: &SpanData{LinkType: "Web", URL: "https://example.com", Target: "_blank"}},
			}},
			want: `<p>see <a href="https://example.com" target="_blank" rel="noopener noreferrer">docs</a></p>`,
		},
		{
			name: "unsafe hyperlink becomes span",
			block: Block{Type: Paragraph, Text: "click", Spans: []Span{
				{Start: 0, End: 5, Type: Hyperlink, Data: &SpanData{LinkType: "Web", URL: "javascript:alert(1)"}},
			}},
			want: "<p><span>click</span></p>",
		},
		{
			name: "multibyte offsets",
			block: Block{Type: Paragraph, Text: "não é", Spans: []Span{
				{Start: 4, End: 5, Type: Em},
			}},
			want: "<p>não <em>é</em></p>",
		},
		{
			name:  "out of range span ignored",
			block: Block{Type: Paragraph, Text: "abc", Spans: []Span{{Start: 1, End: 10, Type: Strong}}},
			want:  "<p>abc</p>",
		},
		{
			name:  "newline",
			block: Block{Type: Paragraph, Text: "one\ntwo"},
			want:  "<p>one<br/>two</p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AsHTML(RichText{tt.block}))
		})
	}
}

func TestAsHTMLGroupsListItems(t *testing.T) {
	rt := RichText{
		{Type: ListItem, Text: "a"},
		{Type: ListItem, Text: "b"},
		{Type: OListItem, Text: "one"},
		{Type: Paragraph, Text: "end"},
		{Type: ListItem, Text: "c"},
	}
	got := AsHTML(rt)
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul><ol><li>one</li></ol><p>end</p><ul><li>c</li></ul>", got)
}

func TestAsHTMLDocumentLinkUsesResolver(t *testing.T) {
	rt := RichText{{Type: Paragraph, Text: "next", Spans: []Span{
		{Start: 0, End: 4, Type: Hyperlink, Data: &SpanData{LinkType: "Document", UID: "other", Type: "posts"}},
	}}}
	got := AsHTML(rt, WithLinkResolver(func(d SpanData) string { return "/post/" + d.UID + "/" }))
	assert.Equal(t, `<p><a href="/post/other/">next</a></p>`, got)
}

func TestAsHTMLImageAndEmbed(t *testing.T) {
	rt := RichText{
		{Type: Image, URL: "https://images.prismic.io/x.png", Alt: "rocket"},
		{Type: Embed, Oembed: &Oembed{Type: "video", EmbedURL: "https://youtu.be/x", HTML: `<iframe src="https://youtube.com/embed/x"></iframe>`}},
	}
	got := AsHTML(rt)
	assert.Contains(t, got, `<p class="block-img"><img src="https://images.prismic.io/x.png" alt="rocket" loading="lazy"/></p>`)
	assert.Contains(t, got, `<iframe src="https://youtube.com/embed/x"></iframe>`)
}

func TestDecodeFromJSON(t *testing.T) {
	raw := `[{"type":"paragraph","text":"Hi there","spans":[{"start":0,"end":2,"type":"strong"}]}]`
	var rt RichText
	require.NoError(t, json.Unmarshal([]byte(raw), &rt))
	assert.Equal(t, "<p><strong>Hi</strong> there</p>", AsHTML(rt))
	assert.Equal(t, "Hi there", AsText(rt))
}

func TestComponentRenders(t *testing.T) {
	var buf bytes.Buffer
	err := Component(RichText{{Type: Preformatted, Text: "x := 1"}}).Render(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "<pre>x := 1</pre>", buf.String())
}

func TestSafeURL(t *testing.T) {
	tests := map[string]string{
		"https://example.com": "https://example.com",
		"/relative":           "/relative",
		"#frag":               "#frag",
		"mailto:a@b.c":        "mailto:a@b.c",
		"javascript:alert(1)": "",
		"//evil.example":      "",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeURL(in), in)
	}
}
