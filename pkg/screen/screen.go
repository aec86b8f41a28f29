// Package screen captures the operator's display and reports its size.
package screen

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
	"github.com/nfnt/resize"
)

// DefaultMaxWidth caps the width of captured screenshots before they are sent
// to the reasoning engine. Full-resolution captures are wastefully large for
// the model; captures wider than this are scaled down proportionally.
const DefaultMaxWidth = 1512

// Capturer grabs PNG screenshots of the primary display.
type Capturer struct {
	// MaxWidth overrides DefaultMaxWidth when > 0.
	MaxWidth int

	// Display selects which display to capture. Zero is the primary.
	Display int
}

// Size reports the primary display's pixel dimensions.
func (c *Capturer) Size() (int, int, error) {
	if screenshot.NumActiveDisplays() <= c.Display {
		return 0, 0, fmt.Errorf("display %d not found", c.Display)
	}
	bounds := screenshot.GetDisplayBounds(c.Display)
	return bounds.Dx(), bounds.Dy(), nil
}

// Capture grabs the display as a PNG, downscaled to the width cap.
func (c *Capturer) Capture() ([]byte, error) {
	img, err := screenshot.CaptureDisplay(c.Display)
	if err != nil {
		return nil, fmt.Errorf("capturing display %d: %w", c.Display, err)
	}
	return EncodePNG(img, c.maxWidth())
}

func (c *Capturer) maxWidth() int {
	if c.MaxWidth > 0 {
		return c.MaxWidth
	}
	return DefaultMaxWidth
}

// EncodePNG encodes an image as PNG, scaling it down proportionally when it is
// wider than maxWidth.
func EncodePNG(img image.Image, maxWidth int) ([]byte, error) {
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
