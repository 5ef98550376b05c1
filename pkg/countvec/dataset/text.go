package dataset

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

// ExtractText returns the visible text of an HTML document. Script and style
// contents are dropped and text nodes are separated by single spaces.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var parts []string
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.Join(parts, " "), nil
}

// ReadText reads the file at path as text, or as HTML when format is "html".
func ReadText(path, format string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	switch format {
	case "", "text":
		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("dataset: read %s: %w", path, err)
		}
		return string(data), nil
	case "html":
		text, err := ExtractText(f)
		if err != nil {
			return "", fmt.Errorf("dataset: parse %s: %w", path, err)
		}
		return text, nil
	}
	return "", fmt.Errorf("dataset: unknown format %q: %w", format, internalerr.ErrInvalidConfig)
}
