package domain

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Upload is the single binary part of a multipart submission.
type Upload struct {
	FileName    string
	ContentType string
	Content     []byte
}

func NewUploadFromFile(path string) (*Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", path, err)
	}

	return &Upload{
		FileName:    filepath.Base(path),
		ContentType: detectContentType(content),
		Content:     content,
	}, nil
}

// detectContentType sniffs content. SVG is markup, which the sniffer only
// reports as text, so it is recognised by its root element.
func detectContentType(content []byte) string {
	ct := http.DetectContentType(content)
	if strings.HasPrefix(ct, "text/") && bytes.Contains(bytes.ToLower(content[:min(len(content), 512)]), []byte("<svg")) {
		return "image/svg+xml"
	}
	return ct
}

func (u *Upload) Empty() bool {
	return u == nil || len(u.Content) == 0
}

var extensionsByContentType = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// Extension is the file extension of the upload, taken from its name and
// falling back to its content type.
func (u *Upload) Extension() string {
	if u == nil {
		return ""
	}
	if ext := filepath.Ext(u.FileName); ext != "" {
		return strings.ToLower(ext)
	}
	return extensionsByContentType[u.ContentType]
}
