package rewrite

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/faleproxy/core/replace"
)

func newTestWalker() *Walker {
	return NewWalker(replace.New(replace.Pair{Target: "Yale", Replacement: "Fale"}))
}

func parse(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestWalker_EndToEnd(t *testing.T) {
	doc := parse(t, `<html><head><title>Yale</title></head><body><p>Yale Yale yale</p><a href="http://yale.edu">link</a></body></html>`)

	stats := newTestWalker().Transform(doc)

	assert.Equal(t, "Fale", doc.Find("title").Text())
	assert.Equal(t, "Fale Fale fale", doc.Find("p").Text())
	href, ok := doc.Find("a").Attr("href")
	require.True(t, ok)
	assert.Equal(t, "http://yale.edu", href)
	assert.Equal(t, "link", doc.Find("a").Text())

	assert.Equal(t, 2, stats.TextNodes)
	assert.Equal(t, 1, stats.RewrittenNodes)
	assert.Equal(t, 4, stats.Replacements)
	assert.True(t, stats.TitleRewritten)
}

func TestWalker_NodeBoundary(t *testing.T) {
	doc := parse(t, `<body><p>Visit Yale</p><a href="https://yale.edu" title="Yale home"><img src="/yale.png" alt="Yale"></a></body>`)

	newTestWalker().Transform(doc)

	assert.Equal(t, "Visit Fale", doc.Find("p").Text())
	a := doc.Find("a")
	assert.Equal(t, "https://yale.edu", a.AttrOr("href", ""))
	assert.Equal(t, "Yale home", a.AttrOr("title", ""))
	assert.Equal(t, "/yale.png", doc.Find("img").AttrOr("src", ""))
	assert.Equal(t, "Yale", doc.Find("img").AttrOr("alt", ""))
}

func TestWalker_TitleOutsideBody(t *testing.T) {
	doc := parse(t, `<html><head><title>Yale News</title></head><body></body></html>`)
	before, err := doc.Find("body").Html()
	require.NoError(t, err)

	stats := newTestWalker().Transform(doc)

	after, err := doc.Find("body").Html()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "Fale News", doc.Find("title").Text())
	assert.Zero(t, stats.TextNodes)
	assert.Equal(t, 1, stats.Replacements)
}

func TestWalker_SkipsScriptsStylesAndComments(t *testing.T) {
	doc := parse(t, `<html><head><style>.yale { color: blue }</style></head><body>`+
		`<!-- Yale comment --><script>var name = "Yale";</script><noscript>Yale</noscript><p class="yale">Yale</p></body></html>`)

	newTestWalker().Transform(doc)

	out, err := doc.Html()
	require.NoError(t, err)
	assert.Contains(t, out, `.yale { color: blue }`)
	assert.Contains(t, out, `<!-- Yale comment -->`)
	assert.Contains(t, out, `var name = "Yale";`)
	assert.Contains(t, out, `<noscript>Yale</noscript>`)
	assert.Contains(t, out, `<p class="yale">Fale</p>`)
}

func TestWalker_LeavesUnchangedNodesAlone(t *testing.T) {
	doc := parse(t, `<body><p>Harvard</p><p>Yale</p></body>`)
	paragraphs := doc.Find("p")
	untouched := paragraphs.Eq(0).Nodes[0].FirstChild
	changed := paragraphs.Eq(1).Nodes[0].FirstChild

	stats := newTestWalker().Transform(doc)

	assert.Same(t, untouched, doc.Find("p").Eq(0).Nodes[0].FirstChild)
	assert.Equal(t, "Harvard", untouched.Data)
	assert.Same(t, changed, doc.Find("p").Eq(1).Nodes[0].FirstChild)
	assert.Equal(t, "Fale", changed.Data)
	assert.Equal(t, 2, stats.TextNodes)
	assert.Equal(t, 1, stats.RewrittenNodes)
}

func TestWalker_NestedText(t *testing.T) {
	doc := parse(t, `<body>Yale<div><span>yale <b>YALE</b></span> tail</div></body>`)

	newTestWalker().Transform(doc)

	assert.Equal(t, "Falefale FALE tail", doc.Find("body").Text())
}

func TestWalker_WithoutBody(t *testing.T) {
	root := &html.Node{Type: html.DocumentNode}
	div := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "data-name", Val: "Yale"}},
	}
	div.AppendChild(&html.Node{Type: html.TextNode, Data: "Yale inside"})
	root.AppendChild(div)
	root.AppendChild(&html.Node{Type: html.TextNode, Data: "yale at root"})
	root.AppendChild(&html.Node{Type: html.CommentNode, Data: "Yale"})
	doc := goquery.NewDocumentFromNode(root)

	stats := newTestWalker().Transform(doc)

	assert.Equal(t, "Fale inside", div.FirstChild.Data)
	assert.Equal(t, "fale at root", div.NextSibling.Data)
	assert.Equal(t, "Yale", root.LastChild.Data)
	assert.Equal(t, "Yale", div.Attr[0].Val)
	assert.Equal(t, 2, stats.RewrittenNodes)
}

func TestWalker_NoMatches(t *testing.T) {
	src := `<html><head><title>Harvard</title></head><body><p>Nothing to see</p></body></html>`
	doc := parse(t, src)
	before, err := doc.Html()
	require.NoError(t, err)

	stats := newTestWalker().Transform(doc)

	after, err := doc.Html()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Zero(t, stats.Replacements)
	assert.False(t, stats.TitleRewritten)
}

func TestWalker_InvisibleCharacters(t *testing.T) {
	doc := parse(t, `<html><head><title>Yale&shy;News</title></head><body>`+
		`<p id="a">yale&shy;Yale</p><p id="b">Go&#8203;yale</p><p id="c">Ca&shy;yale</p></body></html>`)

	stats := newTestWalker().Transform(doc)

	assert.Equal(t, "Fale\u00adNews", doc.Find("title").Text())
	assert.Equal(t, "fale\u00adFale", doc.Find("#a").Text())
	assert.Equal(t, "Go\u200bfale", doc.Find("#b").Text())
	assert.Equal(t, "Ca\u00adfale", doc.Find("#c").Text())
	assert.Equal(t, 5, stats.Replacements)
}
