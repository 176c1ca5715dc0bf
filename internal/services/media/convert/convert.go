package convert

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	// Register decoders for the photo whitelist.
	_ "image/gif"
	_ "image/png"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotAnImage   = errors.New("payload is not a decodable image")
	ErrInvalidPDF   = errors.New("payload is not a structurally valid PDF")
	ErrUnsupported  = errors.New("unsupported source format for document conversion")
)

// pdfMagic is the document-format header signature.
var pdfMagic = []byte("%PDF-")

// Image is a normalized raster result.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// Converter normalizes uploads into the two storage formats: JPEG for photos
// and PDF for documents.
type Converter interface {
	// NormalizePhoto re-encodes an arbitrary raster image as JPEG at the
	// configured quality, flattening transparency against white and carrying
	// over EXIF metadata when the source is a JPEG.
	NormalizePhoto(data []byte) (*Image, error)

	// Thumbnail renders a small square preview of an image, JPEG-encoded.
	Thumbnail(data []byte) ([]byte, error)

	// ToDocument produces PDF bytes for the document slots: PDFs pass through
	// unchanged after a structural check, raster images are wrapped into a
	// single-page PDF.
	ToDocument(data []byte, mimeType string) ([]byte, error)
}

type converter struct {
	quality   int
	thumbSize int
}

func New(quality, thumbSize int) Converter {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if thumbSize <= 0 {
		thumbSize = 150
	}
	return &converter{quality: quality, thumbSize: thumbSize}
}

func (c *converter) NormalizePhoto(data []byte) (*Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	flat := flatten(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	out := preserveExif(data, buf.Bytes())
	bounds := flat.Bounds()
	return &Image{
		Data:   out,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

func (c *converter) Thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	flat := flatten(img)
	scaled := scaleToFit(flat, c.thumbSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *converter) ToDocument(data []byte, mimeType string) ([]byte, error) {
	if mimeType == "application/pdf" {
		if err := validatePDF(data); err != nil {
			return nil, err
		}
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return imageToPDF(flatten(img), c.quality)
}

// validatePDF checks the header signature and that the cross-reference
// structure parses.
func validatePDF(data []byte) error {
	if !bytes.HasPrefix(data, pdfMagic) {
		return ErrInvalidPDF
	}
	if _, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return nil
}

// flatten composites the image onto a white background. JPEG and PDF both
// lack alpha support.
func flatten(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)
	return flat
}

// scaleToFit shrinks the image so its longer edge equals max, preserving
// aspect ratio. Images already within the box are left at their size.
func scaleToFit(img *image.RGBA, max int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= max && h <= max {
		return img
	}

	var tw, th int
	if w >= h {
		tw = max
		th = h * max / w
	} else {
		th = max
		tw = w * max / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// imageToPDF wraps a raster image into a single-page PDF sized to the image.
func imageToPDF(img *image.RGBA, quality int) ([]byte, error) {
	var jpegBuf bytes.Buffer
	if err := jpeg.Encode(&jpegBuf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}

	bounds := img.Bounds()
	// Points at 72 DPI keep the page the same nominal size as the image.
	wPt := float64(bounds.Dx()) * 72.0 / 96.0
	hPt := float64(bounds.Dy()) * 72.0 / 96.0

	doc := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: wPt, Ht: hPt},
	})
	doc.AddPage()
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	doc.RegisterImageOptionsReader("page", opts, bytes.NewReader(jpegBuf.Bytes()))
	doc.ImageOptions("page", 0, 0, wPt, hPt, false, opts, 0, "")

	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}
