package web

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/vbonduro/foodgram/internal/domain"
)

const maxImageSize = 10 * 1024 * 1024 // 10 MB

// allowedImageTypes is the set of MIME types accepted for recipe images.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// decodeImage decodes a "data:image/<type>;base64,<payload>" URI. The
// declared type is ignored; the payload is sniffed instead.
func decodeImage(uri string) (*domain.ImageUpload, error) {
	invalid := func(msg string) error { return domain.NewValidationError("image", msg) }

	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, invalid("Expected a base64 data URI.")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageSize {
		return nil, invalid("The image is too large.")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, invalid("The image is not valid base64.")
	}
	mime, ok := allowedImageMIME(data)
	if !ok {
		return nil, invalid("Upload a valid image. JPEG, PNG, GIF and WebP are accepted.")
	}
	return &domain.ImageUpload{Data: data, MimeType: mime}, nil
}
