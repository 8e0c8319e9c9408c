// Package imaging normalises photo evidence (plate, odometer, dashboard and
// damage photos) before it is uploaded or stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxDimension is the longest edge kept for evidence photos. Odometer digits
// stay legible at this size.
const MaxDimension = 1600

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MaxInputBytes caps how much is read from a single photo source.
const MaxInputBytes = 15 << 20

// ErrTooLarge is returned when the input exceeds MaxInputBytes.
var ErrTooLarge = errors.New("photo exceeds 15 MB")

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a normalised JPEG photo.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Normalize reads a photo, checks the format by sniffing bytes, downscales it
// so neither edge exceeds MaxDimension and re-encodes it as JPEG.
func Normalize(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxInputBytes {
		return nil, ErrTooLarge
	}

	if _, err := Sniff(data); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Photo{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// Sniff returns the detected MIME type, or an error if it is not an accepted
// photo format. Client-supplied content types are never trusted.
func Sniff(data []byte) (string, error) {
	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return "", fmt.Errorf("unsupported photo format: %s (only JPEG and PNG accepted)", detected)
	}
	return detected, nil
}

// fit scales w x h down so the longer edge equals maxDim.
func fit(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w > h {
		h = int(float64(h) * float64(maxDim) / float64(w))
		w = maxDim
	} else {
		w = int(float64(w) * float64(maxDim) / float64(h))
		h = maxDim
	}
	return max(w, 1), max(h, 1)
}

// downscale returns img unchanged when it already fits.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	newW, newH := fit(bounds.Dx(), bounds.Dy(), maxDim)
	if newW == bounds.Dx() && newH == bounds.Dy() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
