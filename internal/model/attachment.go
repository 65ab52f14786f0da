// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

// Attachment is a file staged in the composer. Path is the opaque payload
// handle; the bytes are never read beyond type sniffing.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"type"`
	Size     int64  `json:"size"`
	Path     string `json:"-"`
}

// NewAttachment stats path and derives the chip fields. The MIME type comes
// from the extension, falling back to content sniffing.
func NewAttachment(path string) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, errors.Wrapf(err, "attach %s", path)
	}
	if info.IsDir() {
		return Attachment{}, errors.Errorf("attach %s: is a directory", path)
	}

	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = sniffType(path)
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	return Attachment{
		Name:     filepath.Base(path),
		MIMEType: mt,
		Size:     info.Size(),
		Path:     path,
	}, nil
}

func sniffType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, _ := f.Read(buf)
	return http.DetectContentType(buf[:n])
}

// Descriptor is the identity of an attachment for replay comparison.
func (a Attachment) Descriptor() string {
	return fmt.Sprintf("%s|%s|%d", a.Name, a.MIMEType, a.Size)
}

// Icon returns a short glyph for the chip, derived from the MIME type.
func (a Attachment) Icon() string {
	mt := a.MIMEType
	switch {
	case strings.HasPrefix(mt, "image/"):
		return "🖼"
	case strings.HasPrefix(mt, "audio/"):
		return "🎵"
	case strings.HasPrefix(mt, "video/"):
		return "🎬"
	case mt == "application/pdf":
		return "📕"
	case strings.Contains(mt, "zip"), strings.Contains(mt, "tar"), strings.Contains(mt, "gzip"):
		return "📦"
	case strings.HasPrefix(mt, "text/"), strings.Contains(mt, "json"), strings.Contains(mt, "xml"):
		return "📄"
	default:
		return "📎"
	}
}

// HumanSize formats the byte size for a chip.
func (a Attachment) HumanSize() string {
	const unit = 1024
	if a.Size < unit {
		return fmt.Sprintf("%d B", a.Size)
	}
	div, exp := int64(unit), 0
	for n := a.Size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(a.Size)/float64(div), "KMGTPE"[exp])
}
