package building

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

const (
	complexThreshold  = 60.0
	moderateThreshold = 30.0
	lightThreshold    = 180.0
	darkThreshold     = 80.0
)

// Analyze decodes an encoded image and derives statistics and features from it.
func Analyze(data []byte, maxPixels int) (Analysis, error) {
	img, err := Decode(data, maxPixels)
	if err != nil {
		return Analysis{}, err
	}
	stats, err := Extract(img)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Statistics: stats, Features: InferFeatures(stats)}, nil
}

// Decode reads png, jpeg, gif, bmp or webp data. maxPixels <= 0 disables the
// dimension guard. Decoder panics are converted into image_decode_error.
func Decode(data []byte, maxPixels int) (img image.Image, err error) {
	if len(data) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeImageDecode, "image is empty", nil)
	}
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = apperrors.Wrap(apperrors.CodeImageDecode, "image decoder failed", fmt.Errorf("%v", r))
		}
	}()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeImageDecode, "unsupported or corrupt image", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, apperrors.Wrap(apperrors.CodeImageDecode, "image has no pixels", nil)
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, apperrors.Wrap(apperrors.CodePayloadTooLarge, fmt.Sprintf("image is %dx%d, above the %d pixel limit", cfg.Width, cfg.Height, maxPixels), nil)
	}

	img, _, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeImageDecode, fmt.Sprintf("decode %s image", format), err)
	}
	return img, nil
}

type channelSums struct {
	r, g, b uint64
	sq      uint64
}

func (s *channelSums) add(r, g, b uint8) {
	s.r += uint64(r)
	s.g += uint64(g)
	s.b += uint64(b)
	s.sq += uint64(r)*uint64(r) + uint64(g)*uint64(g) + uint64(b)*uint64(b)
}

// Extract computes brightness, complexity and dominant colour over the RGB
// channels of img. Alpha is discarded without premultiplication.
func Extract(img image.Image) (Statistics, error) {
	if img == nil {
		return Statistics{}, apperrors.Wrap(apperrors.CodeImageDecode, "image is nil", nil)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return Statistics{}, apperrors.Wrap(apperrors.CodeImageDecode, "image has no pixels", nil)
	}

	var sums channelSums
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := nrgba.Pix[nrgba.PixOffset(bounds.Min.X, y):nrgba.PixOffset(bounds.Max.X, y)]
			for i := 0; i+3 < len(row); i += 4 {
				sums.add(row[i], row[i+1], row[i+2])
			}
		}
	} else {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				sums.add(c.R, c.G, c.B)
			}
		}
	}

	pixels := float64(width) * float64(height)
	values := pixels * 3
	mean := float64(sums.r+sums.g+sums.b) / values
	variance := float64(sums.sq)/values - mean*mean
	if variance < 0 {
		variance = 0
	}
	stdDev := math.Sqrt(variance)

	return Statistics{
		Width:         width,
		Height:        height,
		AspectRatio:   round(float64(width)/float64(height), 2),
		Brightness:    round(mean/255, 2),
		Complexity:    complexityFor(stdDev),
		DominantColor: dominantColorFor(float64(sums.r)/pixels, float64(sums.g)/pixels, float64(sums.b)/pixels),
	}, nil
}

func complexityFor(stdDev float64) Complexity {
	switch {
	case stdDev > complexThreshold:
		return ComplexityComplex
	case stdDev > moderateThreshold:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}

func dominantColorFor(r, g, b float64) DominantColor {
	switch {
	case r > lightThreshold && g > lightThreshold && b > lightThreshold:
		return ColorLight
	case r < darkThreshold && g < darkThreshold && b < darkThreshold:
		return ColorDark
	default:
		return ColorMixed
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
