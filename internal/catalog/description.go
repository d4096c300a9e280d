package catalog

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// PlainDescription flattens a problem's HTML description to readable text
// for prompts and terminal output. Unparseable markup is returned as-is.
func PlainDescription(markup string) string {
	if markup == "" {
		return ""
	}

	node, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return markup
	}

	var builder strings.Builder
	flattenNode(node, &builder)

	text := blankLines.ReplaceAllString(builder.String(), "\n\n")
	return strings.TrimSpace(text)
}

func flattenNode(node *html.Node, builder *strings.Builder) {
	switch node.Type {
	case html.TextNode:
		builder.WriteString(node.Data)
	case html.ElementNode:
		switch node.Data {
		case "br", "p", "li", "pre", "div":
			builder.WriteRune('\n')
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		flattenNode(child, builder)
	}

	if node.Type == html.ElementNode {
		switch node.Data {
		case "p", "li", "pre", "div":
			builder.WriteRune('\n')
		}
	}
}
