package ini

import (
	"io"

	goini "github.com/go-ini/ini"

	"github.com/capsela/capsela-util/internal/errors"
)

// Format writes doc as INI text. RootSection keys come first, without a
// header, then the other sections sorted by name. Nested keys are written with
// dotted names and numbers in plain decimal notation.
//
// Parse reads the output back into an equal document unless a string value
// contains a backtick or starts or ends with a quote. A value with a backtick
// is written wrapped in triple double quotes, which Parse keeps as part of
// the value.
func Format(w io.Writer, doc Document) error {
	f := goini.Empty(goini.LoadOptions{IgnoreInlineComment: true})

	for _, name := range doc.Sections() {
		sec := f.Section(goini.DefaultSection)
		if name != RootSection {
			var err error
			if sec, err = f.NewSection(name); err != nil {
				return errors.Wrapf(err, "section %q", name)
			}
		}
		flat := doc[name].Flatten()
		for _, key := range sortedKeys(flat) {
			if _, err := sec.NewKey(key, formatValue(flat[key])); err != nil {
				return errors.Wrapf(err, "key %q in section %q", key, name)
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}
