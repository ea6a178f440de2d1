package errors

import (
	"regexp"
	"strconv"
	"strings"
)

// esbuild diagnostics look like:
//
//	<stdin>:12:4: ERROR: Expected "}" but found ";"
//	app/page.tsx:3:10: WARNING: Duplicate key "id"
var compilerDiagnostic = regexp.MustCompile(`^(.+?):(\d+):(\d+): (ERROR|WARNING): (.+)$`)

// ParseCompilerOutput parses stderr from the syntax-lowering compiler into
// structured errors. Lines that do not match the diagnostic format are
// collapsed into a single error so nothing is silently dropped.
func ParseCompilerOutput(output string, file string) []TranspileError {
	var errs []TranspileError
	var leftover []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := compilerDiagnostic.FindStringSubmatch(line)
		if m == nil {
			leftover = append(leftover, line)
			continue
		}

		lineNo, _ := strconv.Atoi(m[2])
		colNo, _ := strconv.Atoi(m[3])
		severity := SeverityError
		if m[4] == "WARNING" {
			severity = SeverityWarning
		}

		source := m[1]
		if source == "<stdin>" {
			source = file
		}

		errs = append(errs, TranspileError{
			File:     source,
			Line:     lineNo,
			Column:   colNo,
			Message:  m[5],
			Severity: severity,
		})
	}

	if len(errs) == 0 && len(leftover) > 0 {
		errs = append(errs, TranspileError{
			File:     file,
			Message:  strings.Join(leftover, " "),
			Severity: SeverityError,
		})
	}

	return errs
}
