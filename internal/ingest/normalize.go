package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// NormalizeBody reduces a claim body to plain visible text. Collector
// output is frequently HTML fragments; script, style, and frame content is
// dropped. Bodies without markup pass through with whitespace collapsed.
func NormalizeBody(body string) string {
	if !strings.ContainsAny(body, "<>") {
		return collapseWhitespace(body)
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return collapseWhitespace(body)
	}
	return collapseWhitespace(visibleText(doc))
}

// visibleText walks the node tree collecting text, skipping elements a
// reader never sees.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
