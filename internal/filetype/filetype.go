// Package filetype maps file extensions to delivery categories and MIME
// types. The tables are built once at init and never mutated afterwards.
package filetype

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// CategoryOther is the fallback category for rows whose extension is no
// longer (or was never) in the allow-list. New uploads never receive it:
// the upload path rejects unknown extensions outright.
const CategoryOther = "other"

var categories = map[string][]string{
	"video":    {"mp4", "mov", "avi", "mkv", "webm"},
	"image":    {"png", "jpg", "jpeg", "gif", "webp"},
	"document": {"pdf", "doc", "docx", "psd", "ai"},
	"archive":  {"zip", "rar", "7z"},
	"apk":      {"apk"},
}

var mimeTypes = map[string]string{
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"psd":  "image/vnd.adobe.photoshop",
	"ai":   "application/postscript",
	"zip":  "application/zip",
	"rar":  "application/x-rar-compressed",
	"7z":   "application/x-7z-compressed",
	"apk":  "application/vnd.android.package-archive",
}

// extCategory is derived from categories at init for O(1) lookups.
var extCategory = func() map[string]string {
	m := make(map[string]string)
	for cat, exts := range categories {
		for _, e := range exts {
			m[e] = cat
		}
	}
	return m
}()

func ext(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

// Allowed reports whether the filename carries an extension from any
// allow-listed category.
func Allowed(filename string) bool {
	_, ok := extCategory[ext(filename)]
	return ok
}

// Category returns the delivery category for the filename, or CategoryOther
// when the extension is unknown.
func Category(filename string) string {
	if cat, ok := extCategory[ext(filename)]; ok {
		return cat
	}
	return CategoryOther
}

// MimeType returns the MIME type for the filename, defaulting to
// application/octet-stream for unknown extensions.
func MimeType(filename string) string {
	if mt, ok := mimeTypes[ext(filename)]; ok {
		return mt
	}
	return "application/octet-stream"
}

// Sanitize reduces a client-supplied filename to a safe base name: path
// separators are stripped and every character outside [a-zA-Z0-9._-] is
// replaced with an underscore.
func Sanitize(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// StoredName builds a collision-avoiding stored filename by prefixing the
// sanitized original name with a timestamp.
func StoredName(original string, now time.Time) string {
	return fmt.Sprintf("%s_%s", now.Format("20060102_150405"), Sanitize(original))
}
