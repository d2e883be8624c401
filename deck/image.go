package deck

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Image is a generated raster image held in memory.
// The zero value means "no image".
type Image struct {
	MIMEType string
	Data     []byte
}

// IsZero reports whether the image carries no data.
func (img Image) IsZero() bool {
	return len(img.Data) == 0
}

// DataURI renders the image as a self-describing data URI.
func (img Image) DataURI() string {
	if img.IsZero() {
		return ""
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ParseDataURI decodes a base64 data URI produced by DataURI.
func ParseDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, errors.New("data URI has no payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return Image{}, errors.New("only base64 data URIs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data URI: %w", err)
	}
	return Image{MIMEType: mime, Data: data}, nil
}
