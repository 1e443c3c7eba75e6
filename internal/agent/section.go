package agent

import "strings"

// header returns the section name if line is an agent section header,
// e.g. "<<<lmsensors2>>>" or "<<<lmsensors2:sep(0)>>>".
func header(line Line) (string, bool) {
	if len(line) != 1 {
		return "", false
	}
	tok := line[0]
	if !strings.HasPrefix(tok, "<<<") || !strings.HasSuffix(tok, ">>>") || len(tok) < 6 {
		return "", false
	}
	name := tok[3 : len(tok)-3]
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return name, name != ""
}

// Section returns the lines of the named section from full agent output.
// If the output has no section headers at all it is taken to be the bare
// section. A section that appears more than once is concatenated. The
// second result reports whether the section was present.
func Section(lines []Line, name string) ([]Line, bool) {
	if name == "" {
		return lines, true
	}

	var (
		out        []Line
		inSection  bool
		found      bool
		hasHeaders bool
	)
	for _, line := range lines {
		if n, ok := header(line); ok {
			hasHeaders = true
			inSection = n == name
			found = found || inSection
			continue
		}
		if inSection {
			out = append(out, line)
		}
	}

	if !hasHeaders {
		return lines, true
	}
	return out, found
}
