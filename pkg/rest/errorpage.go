package rest

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const unknownError = "Unknown error"

// scrapeErrorPage finds the exception in a Django debug page.
//
// It returns "<Exception Type>: <Exception Value>" when the page has the exception table,
// otherwise the page title, otherwise "Unknown error".
func scrapeErrorPage(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return unknownError
	}

	var title, excType, excValue string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if title == "" {
					title = strings.TrimSpace(textOf(n))
				}
			case atom.Th:
				if attr(n, "scope") != "row" {
					break
				}
				td := nextElement(n, atom.Td)
				if td == nil {
					break
				}
				switch strings.TrimSpace(textOf(n)) {
				case "Exception Type:":
					if excType == "" {
						excType = strings.TrimSpace(textOf(td))
					}
				case "Exception Value:":
					if excValue == "" {
						excValue = strings.TrimSpace(textOf(td))
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if excType != "" && excValue != "" {
		return excType + ": " + excValue
	}
	if title != "" {
		return title
	}
	return unknownError
}

func textOf(n *html.Node) string {
	sb := new(strings.Builder)
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nextElement(n *html.Node, a atom.Atom) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.DataAtom == a {
			return s
		}
	}
	return nil
}
