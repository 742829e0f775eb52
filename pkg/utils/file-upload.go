package utils

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrEmptyContent = errors.New("content is empty")

// ValidateContentType detects the content type from the first 512 bytes of
// data and checks it against allowedTypes. An empty allow list accepts any
// detected type.
func ValidateContentType(data []byte, allowedTypes []string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyContent
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)

	if len(allowedTypes) == 0 {
		return contentType, nil
	}
	for _, t := range allowedTypes {
		if t == contentType {
			return contentType, nil
		}
	}
	return "", fmt.Errorf("invalid file type: %s", contentType)
}

// GetFileExtensionFromContentType returns the file extension (with leading
// dot) for a stored document version.
func GetFileExtensionFromContentType(contentType string) string {
	extensionMap := map[string]string{
		"application/pdf": ".pdf",
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
	}

	if ext, ok := extensionMap[contentType]; ok {
		return ext
	}
	return ".bin"
}
