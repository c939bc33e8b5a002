// Package receipt validates receipt files before they are uploaded.
package receipt

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pigeonworks-llc/billed/pkg/bills"
)

// AllowedExtensions is a map for quick lookup of accepted receipt extensions.
var AllowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
}

// AllowedContentTypes lists the image types the store keeps, by detected content.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Validate reports whether the file may be uploaded as a receipt.
func Validate(file bills.UploadedFile) bool {
	return Check(file) == nil
}

// Check is Validate with the reason: it returns a *bills.ValidationError or nil.
// Only the name and the declared type are inspected.
func Check(file bills.UploadedFile) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Name), "."))
	if ext == "" {
		return &bills.ValidationError{FileName: file.Name, Reason: "missing file extension"}
	}
	if !AllowedExtensions[ext] {
		return &bills.ValidationError{FileName: file.Name, Reason: fmt.Sprintf("extension %q is not allowed (jpg, jpeg, png)", ext)}
	}

	ct := strings.ToLower(strings.TrimSpace(file.ContentType))
	if ct != "" && !strings.HasPrefix(ct, "image/") {
		return &bills.ValidationError{FileName: file.Name, Reason: fmt.Sprintf("declared type %q is not an image", file.ContentType)}
	}
	return nil
}

// DetectContentType sniffs the file signature and returns the detected image
// type, or an error when the bytes are not a JPEG or PNG image.
func DetectContentType(data []byte) (string, error) {
	n := len(data)
	if n > 512 {
		n = 512
	}
	detected := http.DetectContentType(data[:n])
	detected = strings.ToLower(strings.Split(detected, ";")[0])

	if !AllowedContentTypes[detected] {
		return detected, fmt.Errorf("detected content type %q is not a receipt image", detected)
	}
	return detected, nil
}
