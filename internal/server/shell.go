package server

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// defaultShell is served when the project carries no shell of its own.
const defaultShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Axis App</title>
</head>
<body>
<div id="root"></div>
<script type="module" src="/bundle.js"></script>
</body>
</html>
`

// renderShell loads the application shell and injects the discovered
// stylesheet links into <head> and, in development, the live-reload
// client before </body>.
func (s *Server) renderShell(route string) ([]byte, error) {
	shell := []byte(defaultShell)
	for _, name := range []string{filepath.Join("app", "shell.html"), "index.html"} {
		if data, err := os.ReadFile(filepath.Join(s.root, name)); err == nil {
			shell = data
			break
		}
	}

	doc, err := html.Parse(bytes.NewReader(shell))
	if err != nil {
		return nil, fmt.Errorf("parsing shell: %w", err)
	}

	head := findElement(doc, "head")
	if head != nil {
		for _, css := range s.graph.Stylesheets() {
			// Preprocessor URLs are served as css by the stylesheet
			// handler.
			head.AppendChild(&html.Node{
				Type: html.ElementNode,
				Data: "link",
				Attr: []html.Attribute{
					{Key: "rel", Val: "stylesheet"},
					{Key: "href", Val: css},
				},
			})
		}
	}

	if s.config.Development.HotReload {
		body := findElement(doc, "body")
		if body != nil {
			script := &html.Node{
				Type: html.ElementNode,
				Data: "script",
				Attr: []html.Attribute{
					{Key: "type", Val: "module"},
					{Key: "src", Val: "/axis/livereload.js"},
				},
			}
			body.AppendChild(script)
		}
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, fmt.Errorf("rendering shell: %w", err)
	}
	return out.Bytes(), nil
}

// findElement walks the parse tree depth-first for the first element
// with the given tag name.
func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, name) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}
