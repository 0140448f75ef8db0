package analysis

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
)

// EncodedImage is an image re-encoded for upload.
type EncodedImage struct {
	Data   []byte
	Ext    string
	Width  int
	Height int
}

// EncodeImage decodes the submitted bytes and re-encodes them for
// upload, preferring jpeg and falling back to png and then gif when an
// encoder fails. Undecodable input is rejected before any network work
// happens.
func EncodeImage(data []byte) (EncodedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return EncodedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err == nil {
		return EncodedImage{Data: buf.Bytes(), Ext: ".jpg", Width: bounds.Dx(), Height: bounds.Dy()}, nil
	}

	buf.Reset()
	if err := png.Encode(&buf, img); err == nil {
		return EncodedImage{Data: buf.Bytes(), Ext: ".png", Width: bounds.Dx(), Height: bounds.Dy()}, nil
	}

	buf.Reset()
	if err := gif.Encode(&buf, img, nil); err == nil {
		return EncodedImage{Data: buf.Bytes(), Ext: ".gif", Width: bounds.Dx(), Height: bounds.Dy()}, nil
	}

	return EncodedImage{}, fmt.Errorf("unable to encode image in any supported format")
}
