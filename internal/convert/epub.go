package convert

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// EPUBConverter handles .epub files. An EPUB is a zip of XHTML documents;
// content files are flattened in archive order, which in practice follows
// the book's reading order.
type EPUBConverter struct{}

func (c *EPUBConverter) Convert(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read epub: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open epub archive: %w", err)
	}

	var parts []string
	for _, f := range zr.File {
		if !isEPUBContent(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", f.Name, err)
		}
		doc, err := html.Parse(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", f.Name, err)
		}
		if text := flattenHTML(doc); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text content found in epub")
	}
	return strings.Join(parts, "\n\n"), nil
}

func isEPUBContent(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xhtml", ".html", ".htm":
		return true
	}
	return false
}
