package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// InnerHTML serializes the children of n.
func InnerHTML(n *Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return sb.String()
		}
	}
	return sb.String()
}

// OuterHTML serializes n and its descendants.
func OuterHTML(n *Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// TextContent returns the concatenated text of n's descendants.
func TextContent(n *Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.InnerText(n)
}

// Query returns the first node under root matching the XPath expression.
func Query(root *Node, expr string) (*Node, error) {
	return htmlquery.Query(root, expr)
}

// QueryAll returns every node under root matching the XPath expression.
func QueryAll(root *Node, expr string) ([]*Node, error) {
	return htmlquery.QueryAll(root, expr)
}
