// Package markdown validates the "[FILE: name.png]" markers the
// Visualizer's report asks the report-writing model to place, using
// goldmark's AST to find them only inside actual text content (not, say,
// inside a fenced code block quoting the convention itself).
package markdown

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var fileMarkerPattern = regexp.MustCompile(`\[FILE:\s*([^\]]+?)\s*\]`)

// ExtractFileMarkers returns every filename referenced by a "[FILE: ...]"
// marker in report's text content, in document order, duplicates included.
func ExtractFileMarkers(report string) []string {
	source := []byte(report)
	node := goldmark.New().Parser().Parse(text.NewReader(source))

	// goldmark splits a paragraph's text at '[' and ']', so a marker spans
	// several consecutive Text nodes; match against each run of them joined.
	var names []string
	var run []byte
	flush := func() {
		for _, match := range fileMarkerPattern.FindAllSubmatch(run, -1) {
			names = append(names, string(match[1]))
		}
		run = run[:0]
	}
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		textNode, ok := n.(*ast.Text)
		if !ok {
			flush()
			return ast.WalkContinue, nil
		}
		run = append(run, textNode.Segment.Value(source)...)
		return ast.WalkContinue, nil
	})
	flush()
	return names
}

// ValidateFileMarkers reports every marker in report whose filename is not
// a key of generatedFiles, so a caller can decide whether a report
// referencing a chart that was never produced is acceptable.
func ValidateFileMarkers(report string, generatedFiles map[string]string) []string {
	var missing []string
	for _, name := range ExtractFileMarkers(report) {
		if _, ok := generatedFiles[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
