// Package ini parses the INI dialect used for capsela configuration files.
//
// A file is a list of sections. Each section holds key = value assignments:
//
//	; comment
//	[production]
//	db.host = "db.internal"
//	db.port = 5432
//
//	[development : production]
//	db.host = localhost
//
// A section may name a parent with [name : parent]; it starts from a copy of
// the parent's contents as they stand at that point in the file, so only
// sections defined above can be inherited from. Dotted keys build nested
// sections. Assignments above the first header land in RootSection.
//
// Values are stored as float64 when the whole value reads as a number and as
// strings otherwise (see coerce for the exact rules).
package ini

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/capsela/capsela-util/internal/errors"
)

// Document maps section names to sections.
type Document map[string]Section

// Section maps keys to float64 or string scalars, or to nested Sections.
type Section map[string]any

// RootSection holds assignments that appear before the first section header.
const RootSection = ""

var (
	lineBreak  = regexp.MustCompile(`\r\n|\r|\n`)
	comment    = regexp.MustCompile(`^\s*;.*$|^\s*$`)
	header     = regexp.MustCompile(`^\s*\[\s*(\w+)\s*(:\s*(\w+))?\s*\]\s*$`)
	assignment = regexp.MustCompile(`^\s*([^\s]+)\s*=\s*['"]?(.*?)['"]?\s*$`)
)

// Parse parses INI text into a Document.
func Parse(text string) (Document, error) {
	doc := make(Document)
	var current Section
	var currentName string

	for i, line := range lineBreak.Split(text, -1) {
		lineNo := i + 1

		if comment.MatchString(line) {
			continue
		}

		if m := header.FindStringSubmatch(line); m != nil {
			name, parent := m[1], m[3]
			if parent != "" {
				base, ok := doc[parent]
				if !ok {
					return nil, errors.NewConfigError(
						fmt.Sprintf("section %q inherits from %q", name, parent),
						errors.ErrUndefinedParent,
					).WithSection(name).WithLine(lineNo)
				}
				current = base.Clone()
			} else {
				current = make(Section)
			}
			doc[name] = current
			currentName = name
			continue
		}

		if m := assignment.FindStringSubmatch(line); m != nil {
			if current == nil {
				current = make(Section)
				doc[RootSection] = current
			}
			if err := assign(current, m[1], coerce(m[2])); err != nil {
				return nil, errors.NewConfigError(
					fmt.Sprintf("cannot assign %q", m[1]),
					err,
				).WithSection(currentName).WithLine(lineNo)
			}
			continue
		}

		return nil, errors.NewConfigError(fmt.Sprintf("%q", line), errors.ErrMalformedLine).WithLine(lineNo)
	}

	return doc, nil
}

// assign sets a possibly dotted key. Intermediate values that are missing or
// falsy (zero, NaN, empty string) are replaced by new sections; any other
// scalar in the way is a conflict.
func assign(sec Section, key string, value any) error {
	parts := strings.Split(key, ".")
	for _, name := range parts[:len(parts)-1] {
		switch v := sec[name].(type) {
		case Section:
			sec = v
			continue
		case map[string]any:
			sec = Section(v)
			continue
		}
		if !falsy(sec[name]) {
			return errors.ErrKeyConflict
		}
		next := make(Section)
		sec[name] = next
		sec = next
	}
	sec[parts[len(parts)-1]] = value
	return nil
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("read failed", err).WithFile(path)
	}
	return parseWithFile(data, path)
}

// ParseFS reads and parses path from fs.
func ParseFS(fs afero.Fs, path string) (Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.NewConfigError("read failed", err).WithFile(path)
	}
	return parseWithFile(data, path)
}

func parseWithFile(data []byte, path string) (Document, error) {
	doc, err := Parse(string(data))
	if err != nil {
		var cfgErr *errors.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, cfgErr.WithFile(path)
		}
		return nil, err
	}
	return doc, nil
}

// Sections returns the document's section names, sorted.
func (d Document) Sections() []string {
	return sortedKeys(d)
}
