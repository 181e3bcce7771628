package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupported is returned for uploads whose type cannot be handled.
var ErrUnsupported = errors.New("unsupported file type")

// Format names what an upload was decoded from.
type Format string

const (
	FormatHTML     Format = "html"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
)

// Loader converts raw upload bytes into engine input text.
type Loader interface {
	Format() Format
	Load(data []byte) (string, error)
}

// Source is a decoded upload.
type Source struct {
	Text     string `json:"-"`
	Format   Format `json:"format"`
	Filename string `json:"filename"`
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".docx":     true,
	".pdf":      true,
}

// ForFile returns the loader for a filename's extension.
func ForFile(filename string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".txt":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".csv":
		return &CSVLoader{}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	case ".pdf":
		return &PDFLoader{}, nil
	default:
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Load decodes an upload. The extension picks the loader; files without a
// known extension are sniffed.
func Load(data []byte, filename string) (*Source, error) {
	var l Loader
	var err error
	if IsSupportedExtension(filename) {
		l, err = ForFile(filename)
	} else {
		l, err = sniff(data)
	}
	if err != nil {
		return nil, err
	}
	text, err := l.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return &Source{Text: text, Format: l.Format(), Filename: filename}, nil
}

func sniff(data []byte) (Loader, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("text/html"):
		return &HTMLLoader{}, nil
	case mt.Is("application/pdf"):
		return &PDFLoader{}, nil
	case mt.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return &DOCXLoader{}, nil
	case mt.Is("text/csv"):
		return &CSVLoader{}, nil
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return &TextLoader{}, nil
		}
	}
	return nil, fmt.Errorf("%w: detected %s", ErrUnsupported, mt.String())
}
