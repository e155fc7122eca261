package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/piicleaner/internal/scan"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *scan.Report) error
}

// GetWriter returns a writer for the specified format. placeholder is the
// text the text writer highlights in snippets.
func GetWriter(format, placeholder string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{Placeholder: placeholder}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *scan.Report, format, placeholder, outPath string) error {
	writer, err := GetWriter(format, placeholder)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
		if tw, ok := writer.(*TextWriter); ok {
			tw.Color = true
		}
	}

	return writer.Write(w, report)
}
