// Package evidence pins evidence files to IPFS through Pinata.
package evidence

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const MaxFileSize = 10 << 20

var (
	ErrEmptyFile       = errors.New("evidence file is empty")
	ErrFileTooLarge    = errors.New("file size must be less than 10MB")
	ErrUnsupportedType = errors.New("file type not supported, please upload PDF, image, or DOCX")
)

// AllowedTypes are the accepted evidence media types.
var AllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Validate checks size and sniffs the content type of data. It returns the
// detected media type.
func Validate(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if len(data) > MaxFileSize {
		return "", ErrFileTooLarge
	}
	mtype := mimetype.Detect(data)
	for _, allowed := range AllowedTypes {
		if mtype.Is(allowed) {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
}

// GatewayURL returns the public URL of cid, optionally pointing at filename
// inside it.
func GatewayURL(gateway, cid, filename string) string {
	u := strings.TrimRight(gateway, "/") + "/ipfs/" + cid
	if filename != "" {
		u += "/" + url.PathEscape(filename)
	}
	return u
}

// UpstreamError reports a failed or non-2xx Pinata call.
type UpstreamError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return "pinata upload failed: " + e.Err.Error()
	}
	return "pinata upload failed: " + e.Status
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
