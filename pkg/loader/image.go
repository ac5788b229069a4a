package loader

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// decodeImage reads image i from a buffer view, a data URI or a file
// relative to the document.
func (b *builder) decodeImage(i int) (image.Image, error) {
	if i < 0 || i >= len(b.doc.Images) {
		return nil, fmt.Errorf("image %d out of range", i)
	}
	im := b.doc.Images[i]

	var data []byte
	switch {
	case im.BufferView != nil:
		view, _, err := viewData(b.doc, *im.BufferView)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		data = view
	case strings.HasPrefix(im.URI, "data:"):
		_, payload, ok := strings.Cut(im.URI, ",")
		if !ok {
			return nil, fmt.Errorf("malformed data uri")
		}
		var err error
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %w", err)
		}
	case im.URI != "":
		name, err := url.PathUnescape(im.URI)
		if err != nil {
			name = im.URI
		}
		data, err = os.ReadFile(filepath.Join(b.dir, filepath.FromSlash(name)))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("image %d has no source", i)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %d: %w", i, err)
	}
	return img, nil
}
