package download

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Verifier rejects payloads that do not decode as an image, such as HTML error pages served with 200.
type Verifier struct {
	minSide int
}

func NewVerifier(minSide int) *Verifier {
	if minSide <= 0 {
		minSide = 1
	}
	return &Verifier{minSide: minSide}
}

func (v *Verifier) Verify(data []byte) error {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("payload is not a decodable image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() < v.minSide || bounds.Dy() < v.minSide {
		return fmt.Errorf("image too small: %dx%d", bounds.Dx(), bounds.Dy())
	}

	return nil
}
