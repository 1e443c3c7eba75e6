// Package agent turns monitoring agent output into the JSON text the
// sensors section carries. The agent splits every line on whitespace
// before relaying it, so a section arrives as token lines.
package agent

import (
	"bufio"
	"io"
	"strings"

	"codeberg.org/mutker/lmsensors2/internal/errors"
)

// DefaultSection is the agent section written by the lmsensors2 agent plugin.
const DefaultSection = "lmsensors2"

// Line is one agent output line split on whitespace.
type Line []string

// Reassemble joins token lines back into one text blob. Every token is
// followed by a single space and every line ends with a newline, so
// [["foo", "bar"]] becomes "foo bar \n". Whitespace inside a token that
// was split upstream cannot be recovered.
func Reassemble(lines []Line) string {
	var sb strings.Builder
	for _, line := range lines {
		for _, tok := range line {
			sb.WriteString(tok)
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Tokenize splits raw text into token lines the way the agent does.
// Blank lines are kept as empty lines.
func Tokenize(r io.Reader) ([]Line, error) {
	var lines []Line

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.Fields(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New().Wrap(errors.ErrReadInput, err)
	}

	return lines, nil
}
