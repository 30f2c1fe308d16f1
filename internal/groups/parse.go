package groups

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

const maxLineLength = 1 << 20

// Parse reads one group file. Every section tag must be in known; a package
// line before the first section, a malformed header, or a package ID with
// whitespace or control characters fails the whole file.
func Parse(name, path string, r io.Reader, known []backend.ID) (*Group, error) {
	allowed := make(map[backend.ID]bool, len(known))
	for _, id := range known {
		allowed[id] = true
	}

	g := newGroup(name, path)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	var current backend.ID
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			tag, reason := parseHeader(line)
			if reason != "" {
				return nil, &ParseError{File: path, Line: lineNo, Reason: reason}
			}
			id := backend.ID(tag)
			if !allowed[id] {
				return nil, &ParseError{File: path, Line: lineNo, Reason: "unknown backend " + quote(tag)}
			}
			current = id
			g.addSection(id)
			continue
		}

		if current == "" {
			return nil, &ParseError{File: path, Line: lineNo, Reason: "package " + quote(line) + " outside of a backend section"}
		}
		if reason := checkPackageID(line); reason != "" {
			return nil, &ParseError{File: path, Line: lineNo, Reason: reason}
		}
		g.add(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{File: path, Line: lineNo + 1, Reason: "failed to read group file", Err: err}
	}

	return g, nil
}

// stripComment drops a '#' comment that starts the line or follows
// whitespace. A '#' inside a token is kept.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' {
			return line[:i]
		}
	}
	return line
}

// parseHeader returns the tag of a "[tag]" line, or a non-empty reason.
func parseHeader(line string) (string, string) {
	if !strings.HasSuffix(line, "]") {
		return "", "malformed section header " + quote(line) + ": missing ']'"
	}
	tag := strings.TrimSpace(line[1 : len(line)-1])
	if tag == "" {
		return "", "empty section header"
	}
	if strings.ContainsAny(tag, "[]") || strings.IndexFunc(tag, unicode.IsSpace) >= 0 {
		return "", "malformed section header " + quote(line)
	}
	return tag, ""
}

func checkPackageID(id string) string {
	for _, r := range id {
		if unicode.IsSpace(r) {
			return "package " + quote(id) + " contains whitespace"
		}
		if unicode.IsControl(r) {
			return "package " + quote(id) + " contains control characters"
		}
	}
	return ""
}

func quote(s string) string {
	return "'" + s + "'"
}

// sectionOf returns the backend tag if line is a well-formed section header.
func sectionOf(line string) (backend.ID, bool) {
	line = strings.TrimSpace(stripComment(line))
	if !strings.HasPrefix(line, "[") {
		return "", false
	}
	tag, reason := parseHeader(line)
	if reason != "" {
		return "", false
	}
	return backend.ID(tag), true
}
