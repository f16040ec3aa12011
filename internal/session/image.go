package session

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ortho-assist/internal/models"
)

// ImageFile is an image selected for upload
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size is the file size in bytes
func (f ImageFile) Size() int64 {
	return int64(len(f.Data))
}

// DetectImageMimeType returns the content type for an image path based on
// its extension, or "" when the extension is not recognised
func DetectImageMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".dcm":
		return "application/dicom"
	}
	return ""
}

// LoadImageFile reads an image from disk. The content type comes from the
// extension, falling back to content sniffing.
func LoadImageFile(path string) (ImageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImageFile{}, fmt.Errorf("reading image %s: %w", path, err)
	}

	contentType := DetectImageMimeType(path)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return ImageFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// ValidationResult is the outcome of ValidateImageFile
type ValidationResult struct {
	Valid bool
	Error string
}

// ValidateImageFile accepts JPEG, PNG and DICOM files. A maxBytes of zero
// disables the size ceiling.
func ValidateImageFile(file ImageFile, maxBytes int64) ValidationResult {
	if !models.IsAllowedImage(file.ContentType, file.Name) {
		return ValidationResult{Error: "Please select a valid image file (JPEG, PNG, or DICOM)"}
	}
	if maxBytes > 0 && file.Size() > maxBytes {
		return ValidationResult{Error: fmt.Sprintf("File size must be less than %s", formatBytes(maxBytes))}
	}
	return ValidationResult{Valid: true}
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/mb)
}
