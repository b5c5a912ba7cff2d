// Package layout owns the blob path conventions shared by the ingestion
// pipeline and the chat context assembler. Both sides must derive identical
// paths from the same source path, so every derivation lives here.
package layout

import (
	"fmt"
	"path"
	"strings"

	"github.com/akolanti/studyfellow/internal/config"
)

// IsSourcePath reports whether name sits under the source upload prefix.
func IsSourcePath(name string) bool {
	return strings.HasPrefix(name, config.SourcePrefix)
}

func IsPDFContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), config.PDFContentType)
}

// AcceptsUpload filters finalize events: a source-prefixed object with a PDF
// content type.
func AcceptsUpload(name, contentType string) bool {
	return IsSourcePath(name) && IsPDFContentType(contentType)
}

// AcceptsDeletion is looser than AcceptsUpload because delete events may
// arrive without a content type.
func AcceptsDeletion(name, contentType string) bool {
	if !IsSourcePath(name) {
		return false
	}
	return strings.HasSuffix(strings.ToLower(name), ".pdf") || IsPDFContentType(contentType)
}

// FileName is the last path segment.
func FileName(name string) string {
	return path.Base(name)
}

// Stem is the file name without its final extension.
func Stem(name string) string {
	base := FileName(name)
	return strings.TrimSuffix(base, path.Ext(base))
}

// SubDir returns every segment between the source prefix and the file name,
// joined by "/". Empty when the file sits directly under the prefix.
func SubDir(sourcePath string) string {
	rel := strings.TrimPrefix(sourcePath, config.SourcePrefix)
	idx := strings.LastIndex(rel, "/")
	if idx < 0 {
		return ""
	}
	return rel[:idx]
}

// Subject is the first segment after the source prefix, only when the file
// is inside at least one sub directory.
func Subject(sourcePath string) string {
	rel := strings.TrimPrefix(sourcePath, config.SourcePrefix)
	parts := strings.Split(rel, "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return ""
}

// SplitDir is the directory holding every split page of sourcePath, with a
// trailing slash so it can be used as a listing prefix.
func SplitDir(sourcePath string) string {
	var b strings.Builder
	b.WriteString(config.SplitPrefix)
	if dir := SubDir(sourcePath); dir != "" {
		b.WriteString(dir)
		b.WriteString("/")
	}
	b.WriteString(Stem(sourcePath))
	b.WriteString("/")
	return b.String()
}

// SplitPagePath is the blob path of 1-based page pageNumber of sourcePath.
func SplitPagePath(sourcePath string, pageNumber int) string {
	return fmt.Sprintf("%spage%d.pdf", SplitDir(sourcePath), pageNumber)
}

// AttachmentPath is where a chat attachment sent by senderID into a
// conversation is stored.
func AttachmentPath(senderID, conversationID, fileName string) string {
	return config.AttachmentPrefix + senderID + "/" + conversationID + "/" + fileName
}
