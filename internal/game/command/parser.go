package command

import "strings"

// ParseResult holds the parsed keyword and arguments from a protocol line.
type ParseResult struct {
	// Command is the first word of the input, uppercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command, case and inner spacing preserved.
	RawArgs string
}

// ParseError is a malformed but recognised command line. The connection
// stays open and Reason is reported as "FAIL <reason>".
type ParseError struct {
	Command string
	Reason  string
}

// Error returns the client-facing reason.
func (e *ParseError) Error() string { return e.Reason }

// ErrInvalidCommand is returned for an unrecognised keyword.
var ErrInvalidCommand = &ParseError{Reason: "invalid command"}

// Parse splits a line into an uppercase keyword and its arguments. Only the
// keyword changes case.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	spaceIdx := strings.IndexByte(line, ' ')
	if spaceIdx < 0 {
		return ParseResult{
			Command: strings.ToUpper(line),
		}
	}

	cmd := strings.ToUpper(line[:spaceIdx])
	rest := strings.TrimSpace(line[spaceIdx+1:])

	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}

	return ParseResult{
		Command: cmd,
		Args:    args,
		RawArgs: rest,
	}
}

// Sanitize keeps only the characters allowed in names and shouts:
// ASCII letters, digits, and - _ space . , : ! ( ) #.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if allowed(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func allowed(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("-_ .,:!()#", c) >= 0
}
