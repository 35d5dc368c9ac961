package ocr

import (
	"github.com/gabriel-vasile/mimetype"
)

// Accepted upload content types.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWEBP = "image/webp"
)

// SniffImage detects the content type of an upload from its bytes and
// reports whether it is one of the accepted image formats. The declared
// Content-Type header is never trusted.
func SniffImage(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	mt := mimetype.Detect(data)
	for _, accepted := range []string{MimeJPEG, MimePNG, MimeWEBP} {
		if mt.Is(accepted) {
			return accepted, true
		}
	}
	return mt.String(), false
}
