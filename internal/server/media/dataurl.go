package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// MaxImageBytes bounds a decoded upload.
const MaxImageBytes = 5 << 20

var (
	ErrInvalidDataURL    = errors.New("invalid image data")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrImageTooLarge     = errors.New("image too large")
)

// Image is a decoded upload.
type Image struct {
	ContentType string
	// Ext is the subtype without any structured suffix, e.g. "png" or "svg".
	Ext  string
	Data []byte
}

// DecodeDataURL parses "data:image/<type>;base64,<payload>".
func DecodeDataURL(s string) (*Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURL
	}

	mediaType, params, ok := strings.Cut(meta, ";")
	if !ok || params != "base64" {
		return nil, fmt.Errorf("%w: only base64 payloads are accepted", ErrInvalidDataURL)
	}
	mediaType, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}

	subtype, ok := strings.CutPrefix(mediaType, "image/")
	if !ok || subtype == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
	}
	ext, _, _ := strings.Cut(subtype, "+")

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return nil, ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidDataURL
	}
	if len(data) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}

	return &Image{ContentType: mediaType, Ext: ext, Data: data}, nil
}
