package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"

	"qoiproc/fileop"
	"qoiproc/qoi"
)

// SourceExts lists the extensions of the formats LoadImage understands.
var SourceExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".qoi"}

// LoadImage decodes an image file in any registered format.
func LoadImage(name string) (image.Image, string, error) {
	data, err := fileop.ReadFile(name)
	if err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image %q: %w", name, err)
	}
	return img, format, nil
}

// writeImage encodes img as format.
func writeImage(w io.Writer, img image.Image, format string, opts *qoi.Options) error {
	switch format {
	case "qoi":
		return qoi.Encode(w, img, opts)
	case "gif":
		return gif.Encode(w, img, nil)
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case "png":
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		return enc.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatExt is the file extension written for each output format.
var formatExt = map[string]string{
	"qoi":  ".qoi",
	"gif":  ".gif",
	"jpeg": ".jpg",
	"png":  ".png",
	"bmp":  ".bmp",
	"tiff": ".tiff",
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
