package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"path"
	"strings"

	"github.com/disintegration/gift"

	_ "image/gif"
	_ "image/png"
)

const (
	JPEGQuality    = 90
	MaxImageWidth  = 8000
	MaxImageHeight = 8000
)

// Variant is one stored derivative of an uploaded image. Exactly one variant
// per upload carries Original=true.
type Variant struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Original bool   `json:"original"`
}

// thumbnailSizes are the derivatives generated alongside every original.
var thumbnailSizes = []struct {
	name  string
	width int
}{
	{"small", 200},
	{"medium", 640},
}

// blob is an encoded variant payload ready for the object store.
type blob struct {
	key      string
	data     []byte
	original bool
}

// buildVariants decodes the upload and produces the original plus one resized
// thumbnail per configured size, keyed under the given prefix.
func buildVariants(data []byte, filename, prefix string) ([]blob, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxImageWidth || bounds.Dy() > MaxImageHeight {
		return nil, fmt.Errorf("image too large (max %dx%d)", MaxImageWidth, MaxImageHeight)
	}

	blobs := []blob{{
		key:      prefix + "/" + filename,
		data:     data,
		original: true,
	}}

	for _, size := range thumbnailSizes {
		g := gift.New(gift.Resize(size.width, 0, gift.LanczosResampling))
		dst := image.NewRGBA(g.Bounds(bounds))
		g.Draw(dst, img)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode %s thumbnail: %v", size.name, err)
		}

		blobs = append(blobs, blob{
			key:  prefix + "/" + size.name + "_" + thumbnailName(filename),
			data: buf.Bytes(),
		})
	}

	return blobs, nil
}

// thumbnailName swaps the extension for .jpg since thumbnails are re-encoded
// as JPEG regardless of the source format.
func thumbnailName(filename string) string {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext) + ".jpg"
}
