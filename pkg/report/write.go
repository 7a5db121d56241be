package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// Format selects the report rendering.
type Format string

const (
	FormatText       Format = "text"
	FormatStructured Format = "structured"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatStructured:
		return Format(s), nil
	default:
		return "", errors.Errorf("unknown report format %q (want text or structured)", s)
	}
}

// JSON renders the structured form.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal report")
	}
	return data, nil
}

// Render writes the report to w in the requested format.
func Render(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatStructured:
		data, err := r.JSON()
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return errors.Wrap(err, "failed to write report")
		}
		return nil
	default:
		return RenderText(w, r)
	}
}

// WriteFile renders the report and writes it through a file lock, so a
// concurrent watcher or server never reads a torn report.
func WriteFile(path string, r *Report, format Format) error {
	var buf bytes.Buffer
	if err := Render(&buf, r, format); err != nil {
		return err
	}
	if err := lockedfile.Write(path, &buf, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write report to %s", path)
	}
	return nil
}
