package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSourceBytes bounds diagram source accepted from untrusted callers.
const MaxSourceBytes = 1 << 20

// MaxLabelLength bounds node and edge labels set through structured edits.
const MaxLabelLength = 512

// ValidateSource validates diagram source text received from an untrusted caller.
//
// The rules are intentionally loose, since malformed diagram text is handled by
// the extractor itself:
//   - At most MaxSourceBytes bytes
//   - Valid UTF-8
//   - No null bytes
func ValidateSource(src string) error {
	if len(src) > MaxSourceBytes {
		return New(ErrCodeInvalidInput, "source too large (max %d bytes)", MaxSourceBytes)
	}
	if !utf8.ValidString(src) {
		return New(ErrCodeInvalidInput, "source is not valid UTF-8")
	}
	if strings.ContainsRune(src, '\x00') {
		return New(ErrCodeInvalidInput, "source contains null bytes")
	}
	return nil
}

// ValidateLabel validates a node or edge label set through a structured edit.
// Labels are single-line: the dialect emitters write one declaration per line.
func ValidateLabel(label string) error {
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return New(ErrCodeInvalidInput, "label too long (max %d characters)", MaxLabelLength)
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "label contains control characters")
		}
	}
	return nil
}

// ValidateOutputName validates a download filename derived from user input.
// It ensures the name is a simple basename without path components.
func ValidateOutputName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "output name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "output name cannot contain path separators")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "output name cannot be a hidden file")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "output name contains invalid characters")
		}
	}
	return nil
}
