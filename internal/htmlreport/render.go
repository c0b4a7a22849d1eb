package htmlreport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-qrda2qpp/internal/report"
)

// HighlightStyle is the chroma style used for the raw JSON block.
const HighlightStyle = "github"

// Sentinel errors for report rendering.
var (
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrStyle          = errors.New("highlight style unavailable")
)

// htmlTemplate wraps goldmark's fragment output in a complete HTML5 document.
const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title></title>
</head>
<body>
%s
</body>
</html>`

const baseCSS = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:60rem;padding:0 1rem;color:#1f2328}
h1{border-bottom:1px solid #d0d7de;padding-bottom:.3em}
table{border-collapse:collapse;width:100%;margin:1em 0}
th,td{border:1px solid #d0d7de;padding:.4em .6em;text-align:left;vertical-align:top}
th{background:#f6f8fa}
td:last-child{font-family:ui-monospace,monospace;font-size:.85em;word-break:break-all}
pre.chroma{padding:1em;overflow:auto;border-radius:6px}
`

// Renderer converts report Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md  goldmark.Markdown
	css string
}

// New creates a Renderer with GFM tables and class-based highlighting.
func New() (*Renderer, error) {
	style := styles.Get(HighlightStyle)
	if style == nil {
		return nil, fmt.Errorf("%w: %s", ErrStyle, HighlightStyle)
	}
	var css bytes.Buffer
	css.WriteString(baseCSS)
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&css, style); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStyle, err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(HighlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
	return &Renderer{md: md, css: css.String()}, nil
}

// CSS returns the stylesheet embedded in every rendered page.
func (r *Renderer) CSS() string {
	return r.css
}

// Report renders all as a standalone page titled title. payload is the
// serialized report shown verbatim below the tables.
func (r *Renderer) Report(ctx context.Context, title string, all *report.AllErrors, payload []byte) ([]byte, error) {
	return r.Render(ctx, title, Markdown(title, all, payload))
}

// Render converts Markdown content to a standalone HTML5 document.
// Goldmark has no context support, so conversion runs in a goroutine and
// Render returns early on cancellation.
func (r *Renderer) Render(ctx context.Context, title, content string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		page []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		page, err := finish(fmt.Sprintf(htmlTemplate, buf.String()), title, r.css)
		done <- result{page: page, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.page, res.err
	}
}

// finish sets the document title and appends a <style> element to <head>.
func finish(page, title, css string) ([]byte, error) {
	doc, err := xhtml.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	head := find(doc, atom.Head)
	if head == nil {
		return nil, fmt.Errorf("%w: document has no head", ErrHTMLConversion)
	}
	if t := find(head, atom.Title); t != nil {
		for t.FirstChild != nil {
			t.RemoveChild(t.FirstChild)
		}
		t.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: title})
	}
	if css != "" {
		style := &xhtml.Node{Type: xhtml.ElementNode, DataAtom: atom.Style, Data: "style"}
		style.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: sanitizeCSS(css)})
		head.AppendChild(style)
	}

	var buf bytes.Buffer
	if err := xhtml.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return buf.Bytes(), nil
}

func find(n *xhtml.Node, a atom.Atom) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

// sanitizeCSS escapes sequences that could close the <style> element early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
