package media

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"

	"github.com/unalkalkan/OneClickStudio/internal/provider"
)

// ToDataURI encodes a blob as a base64 data URI
func ToDataURI(b *provider.Blob) string {
	mimeType := b.MIMEType
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "" {
		mimeType = mimetype.Detect(b.Data).String()
	}
	return dataurl.New(b.Data, mimeType).String()
}

// ParseImage decodes an image data URI. The declared type is trusted only
// when it names an image; otherwise the bytes are sniffed.
func ParseImage(uri string) (*provider.Blob, error) {
	du, err := dataurl.DecodeString(strings.TrimSpace(uri))
	if err != nil {
		return nil, fmt.Errorf("invalid data URI: %w", err)
	}
	if len(du.Data) == 0 {
		return nil, fmt.Errorf("data URI carries no data")
	}

	mimeType := du.MediaType.ContentType()
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = mimetype.Detect(du.Data).String()
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = mimeType[:i]
		}
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("data URI is not an image: %s", mimeType)
	}
	return &provider.Blob{MIMEType: mimeType, Data: du.Data}, nil
}
