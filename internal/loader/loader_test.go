package loader

import (
	"errors"
	"strings"
	"testing"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"lesson.html", FormatHTML},
		{"LESSON.HTM", FormatHTML},
		{"notes.txt", FormatText},
		{"readme.md", FormatMarkdown},
		{"readme.markdown", FormatMarkdown},
		{"rows.csv", FormatCSV},
		{"doc.docx", FormatDOCX},
		{"scan.pdf", FormatPDF},
	}
	for _, tt := range tests {
		l, err := ForFile(tt.name)
		if err != nil {
			t.Fatalf("ForFile(%q): %v", tt.name, err)
		}
		if l.Format() != tt.want {
			t.Errorf("ForFile(%q): expected %q, got %q", tt.name, tt.want, l.Format())
		}
	}

	if _, err := ForFile("image.png"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if IsSupportedExtension("x.exe") || !IsSupportedExtension("x.MD") {
		t.Error("unexpected IsSupportedExtension result")
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf-8", []byte("café"), "café"},
		{"bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, "hi"...), "hi"},
		{"latin-1 fallback", []byte{'c', 'a', 'f', 0xE9}, "café"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoad_HTMLPassesThrough(t *testing.T) {
	src, err := Load([]byte("<h1>Intro</h1>"), "lesson.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Text != "<h1>Intro</h1>" || src.Format != FormatHTML || src.Filename != "lesson.html" {
		t.Errorf("unexpected source %+v", src)
	}
}

func TestLoad_CSV(t *testing.T) {
	input := "name,lang\n\"Smith, J\", en\n\n,\nBo,fr\n"
	src, err := Load([]byte(input), "rows.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "name, lang\nSmith, J, en\nBo, fr"
	if src.Text != want {
		t.Errorf("expected %q, got %q", want, src.Text)
	}
}

func TestLoad_SniffsUnknownExtension(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"html", "<!DOCTYPE html><html><body><h1>x</h1></body></html>", FormatHTML},
		{"text", "just some words\non two lines\n", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Load([]byte(tt.data), "upload")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.Format != tt.want {
				t.Errorf("expected %q, got %q", tt.want, src.Format)
			}
		})
	}
}

func TestLoad_RejectsBinary(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err := Load(png, "picture.png")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestLoad_CorruptDocuments(t *testing.T) {
	for _, name := range []string{"broken.docx", "broken.pdf"} {
		if _, err := Load([]byte("not really"), name); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestLoad_SniffedPDFStillParsed(t *testing.T) {
	_, err := Load([]byte("%PDF-1.4\ngarbage"), "upload")
	if err == nil || !strings.Contains(err.Error(), "pdf") {
		t.Errorf("expected a pdf parse error, got %v", err)
	}
}
