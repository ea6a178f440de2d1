package errors

import (
	"fmt"
	"strings"
)

// FallbackModule synthesizes a replacement ES module for a source file that
// failed to transpile. The module default-exports a component that renders
// the error text, so one broken file never blocks the rest of the
// application from loading.
func FallbackModule(path string, errs []TranspileError) []byte {
	var b strings.Builder

	b.WriteString("import { jsx } from \"/axis/runtime.js\";\n\n")
	b.WriteString(fmt.Sprintf("const message = %s;\n", jsString(formatErrors(path, errs))))
	b.WriteString("export default function TranspileFailure() {\n")
	b.WriteString("  return jsx(\"pre\", {\n")
	b.WriteString("    style: { color: \"#b00020\", background: \"#fff3f3\", padding: \"1rem\", whiteSpace: \"pre-wrap\" },\n")
	b.WriteString("    children: message,\n")
	b.WriteString("  });\n")
	b.WriteString("}\n")

	return []byte(b.String())
}

func formatErrors(path string, errs []TranspileError) string {
	if len(errs) == 0 {
		return fmt.Sprintf("Failed to transpile %s", path)
	}
	lines := make([]string, 0, len(errs)+1)
	lines = append(lines, fmt.Sprintf("Failed to transpile %s:", path))
	for _, e := range errs {
		lines = append(lines, fmt.Sprintf("  %d:%d %s", e.Line, e.Column, e.Message))
	}
	return strings.Join(lines, "\n")
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", "\\n",
		"\r", "\\r",
		"\t", "\\t",
		"`", "\\`",
		"</", "<\\/",
	)
	return "\"" + r.Replace(s) + "\""
}
