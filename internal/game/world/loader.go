package world

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError reports a malformed map file.
type ParseError struct {
	// Line is the zero-based line of the offending input, or -1 when not line specific.
	Line   int
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.Line < 0 {
		return "map parse error: " + e.Reason
	}
	return fmt.Sprintf("map parse error (line %d): %s", e.Line, e.Reason)
}

// Text map layout: a name line, a goal line, then the grid rows.
const (
	nameLine     = 0
	goalLine     = 1
	mapBeginLine = 2
	minLines     = 3
)

// yamlMapFile is the YAML representation of a map file.
type yamlMapFile struct {
	Name string   `yaml:"name"`
	Goal int      `yaml:"goal"`
	Rows []string `yaml:"rows"`
}

// LoadMapFromFile reads a map file. Files ending in .yaml or .yml use the YAML
// schema; anything else uses the text format.
//
// Precondition: path must point to a readable map file.
// Postcondition: Returns a validated Map or a non-nil error.
func LoadMapFromFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadMapFromYAML(data)
	default:
		return ParseText(data)
	}
}

// ParseText parses the text map format:
//
//	name <map name>
//	win <goal>
//	<row>
//	<row>...
//
// Postcondition: Returns a validated Map, a *ParseError for malformed input, or
// an error wrapping ErrUnplayable.
func ParseText(data []byte) (*Map, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning map: %w", err)
	}
	// Trailing blank lines are tolerated.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < minLines {
		return nil, &ParseError{Line: len(lines), Reason: "a map file must contain at least three lines"}
	}

	name, err := valueAfterTag(lines[nameLine], "name", nameLine)
	if err != nil {
		return nil, err
	}
	goalStr, err := valueAfterTag(lines[goalLine], "win", goalLine)
	if err != nil {
		return nil, err
	}
	goal, err := strconv.Atoi(strings.TrimSpace(goalStr))
	if err != nil {
		return nil, &ParseError{Line: goalLine, Reason: "map goal should be an integer"}
	}

	rows, err := parseRows(lines[mapBeginLine:], mapBeginLine)
	if err != nil {
		return nil, err
	}
	return NewMap(name, goal, rows)
}

// LoadMapFromYAML parses a map from YAML bytes.
//
// Postcondition: Returns a validated Map or a non-nil error.
func LoadMapFromYAML(data []byte) (*Map, error) {
	var file yamlMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing map YAML: %w", err)
	}
	if len(file.Rows) == 0 {
		return nil, &ParseError{Line: -1, Reason: "rows must not be empty"}
	}
	rows, err := parseRows(file.Rows, 0)
	if err != nil {
		return nil, err
	}
	return NewMap(file.Name, file.Goal, rows)
}

// MustParseRows builds a Map from glyph rows and panics on error. Intended for tests.
func MustParseRows(goal int, rows ...string) *Map {
	tiles, err := parseRows(rows, 0)
	if err != nil {
		panic("world: MustParseRows: " + err.Error())
	}
	m, err := NewMap("test", goal, tiles)
	if err != nil {
		panic("world: MustParseRows: " + err.Error())
	}
	return m
}

func parseRows(lines []string, firstLine int) ([][]Tile, error) {
	width := len(lines[0])
	if width == 0 {
		return nil, &ParseError{Line: firstLine, Reason: "map rows must not be empty"}
	}
	rows := make([][]Tile, len(lines))
	for r, line := range lines {
		lineNum := firstLine + r
		if len(line) != width {
			return nil, &ParseError{Line: lineNum, Reason: "all lines must be the same length"}
		}
		rows[r] = make([]Tile, width)
		for c := 0; c < len(line); c++ {
			t, ok := TileFromGlyph(line[c])
			if !ok {
				return nil, &ParseError{Line: lineNum, Reason: fmt.Sprintf("invalid character %q (col:%d)", line[c], c)}
			}
			rows[r][c] = t
		}
	}
	return rows, nil
}

func valueAfterTag(line, tag string, lineNum int) (string, error) {
	first, rest, found := strings.Cut(line, " ")
	if !found {
		return "", &ParseError{Line: lineNum, Reason: fmt.Sprintf("%s not specified; the %s should be preceded with %q", tag, tag, tag)}
	}
	if first != tag {
		return "", &ParseError{Line: lineNum, Reason: fmt.Sprintf("the map %s should be preceded with %q", tag, tag)}
	}
	return rest, nil
}
