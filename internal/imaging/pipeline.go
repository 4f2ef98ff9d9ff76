package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Params controls the preprocessing pipeline that turns a lot photo into a
// binary foreground mask. Sizes are kernel side lengths in pixels and must
// be odd.
type Params struct {
	// BlurSize is the side of the Gaussian pre-blur kernel.
	BlurSize int `json:"blur_size"`

	// BlurSigma is the standard deviation of the pre-blur kernel.
	BlurSigma float64 `json:"blur_sigma"`

	// BlockSize is the side of the neighbourhood used for the adaptive
	// threshold's local Gaussian mean.
	BlockSize int `json:"block_size"`

	// C is subtracted from the local mean. A pixel becomes foreground when it
	// is at least C levels darker than its neighbourhood.
	C int `json:"c"`

	// MedianSize is the side of the median filter applied to the mask.
	MedianSize int `json:"median_size"`

	// DilateSize is the side of the dilation kernel.
	DilateSize int `json:"dilate_size"`

	// DilateIterations is how many times dilation is applied.
	DilateIterations int `json:"dilate_iterations"`
}

// DefaultParams returns the pipeline settings the default occupancy
// threshold of 900 pixels was tuned for.
func DefaultParams() Params {
	return Params{
		BlurSize:         3,
		BlurSigma:        1,
		BlockSize:        25,
		C:                16,
		MedianSize:       5,
		DilateSize:       3,
		DilateIterations: 1,
	}
}

// Validate checks that every kernel size is a positive odd number.
func (p Params) Validate() error {
	for _, k := range []struct {
		name string
		size int
	}{
		{"blur_size", p.BlurSize},
		{"block_size", p.BlockSize},
		{"median_size", p.MedianSize},
		{"dilate_size", p.DilateSize},
	} {
		if k.size < 1 || k.size%2 == 0 {
			return fmt.Errorf("%s must be a positive odd number, got %d", k.name, k.size)
		}
	}
	if p.BlurSigma <= 0 {
		return fmt.Errorf("blur_sigma must be positive, got %g", p.BlurSigma)
	}
	if p.BlockSize < 3 {
		return fmt.Errorf("block_size must be at least 3, got %d", p.BlockSize)
	}
	if p.DilateIterations < 0 {
		return fmt.Errorf("dilate_iterations must not be negative, got %d", p.DilateIterations)
	}
	return nil
}

// Preprocess converts img into a binary mask where 255 marks "busy" pixels:
// edges, texture, and anything darker than its surroundings. Asphalt in an
// empty space is smooth and comes out almost entirely black, while a parked
// car produces many white pixels.
//
// # Pipeline
//
//  1. BT.601 luma (0.299R + 0.587G + 0.114B)
//  2. Gaussian blur (BlurSize, BlurSigma) to suppress sensor noise
//  3. Adaptive inverse threshold: 255 where pixel <= localMean(BlockSize) - C,
//     the mean being Gaussian weighted with sigma 0.3*((BlockSize-1)/2-1)+0.8
//  4. Median filter (MedianSize) to drop isolated specks
//  5. Dilation (DilateSize, DilateIterations) to merge fragments of a vehicle
//
// Borders replicate the edge pixels. The returned image has the same bounds
// as img.
func Preprocess(img image.Image, p Params) (*image.Gray, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	src := img
	if bounds.Min != (image.Point{}) {
		src = imaging.Crop(img, bounds)
	}

	blurred := gaussianBlur(luma(src), p.BlurSize, p.BlurSigma)
	mask := adaptiveThresholdInv(blurred, p.BlockSize, p.C)
	mask = toGray(effect.Median(mask, radius(p.MedianSize)))
	for i := 0; i < p.DilateIterations; i++ {
		mask = toGray(effect.Dilate(mask, radius(p.DilateSize)))
	}

	return rebase(mask, bounds), nil
}

// luma converts img to 8-bit gray with BT.601 weights.
func luma(img image.Image) *image.Gray {
	return toGray(effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114))
}

// toGray keeps the red channel of an origin-anchored gray RGBA image, which
// is what bild's filters return for gray input.
func toGray(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()]
		for x := range out {
			out[x] = row[x*4]
		}
	}
	return dst
}

// gaussianKernel returns a normalized 1-D Gaussian of the given odd length.
func gaussianKernel(size int, sigma float64) *convolution.Kernel {
	k := convolution.NewKernel(size, 1)
	r := size / 2
	sum := 0.0
	for i := range k.Matrix {
		x := float64(i - r)
		k.Matrix[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += k.Matrix[i]
	}
	for i := range k.Matrix {
		k.Matrix[i] /= sum
	}
	return k
}

// blockSigma is the sigma OpenCV derives from a kernel size when none is
// given, as used by its Gaussian adaptive threshold.
func blockSigma(size int) float64 {
	return 0.3*(float64(size-1)*0.5-1) + 0.8
}

// gaussianBlur applies a separable Gaussian with edge replication. The 0.5
// bias rounds to nearest instead of truncating.
func gaussianBlur(src *image.Gray, size int, sigma float64) *image.Gray {
	if size <= 1 {
		return src
	}
	k := gaussianKernel(size, sigma)
	opts := &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: true}
	out := convolution.Convolve(src, k, opts)
	out = convolution.Convolve(out, k.Transposed(), opts)
	return toGray(out)
}

// adaptiveThresholdInv marks a pixel 255 when it is at least c levels below
// the Gaussian-weighted mean of its blockSize neighbourhood, and 0 otherwise.
func adaptiveThresholdInv(src *image.Gray, blockSize, c int) *image.Gray {
	mean := gaussianBlur(src, blockSize, blockSigma(blockSize))

	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := int(src.GrayAt(x, y).Y)
			m := int(mean.GrayAt(x, y).Y)
			if v <= m-c {
				dst.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}

// radius converts an odd kernel side length into the radius bild expects.
func radius(size int) float64 {
	return float64(size / 2)
}

// rebase returns g positioned at bounds. The pipeline runs on an
// origin-anchored copy, while slot rectangles are expressed in source
// coordinates. g and bounds must have the same size.
func rebase(g *image.Gray, bounds image.Rectangle) *image.Gray {
	if g.Rect == bounds {
		return g
	}
	return &image.Gray{Pix: g.Pix, Stride: g.Stride, Rect: bounds}
}

// CountNonZero returns the number of mask pixels greater than zero inside
// rect. rect is clipped to the mask bounds first, so a rectangle that hangs
// off the image counts only its visible part.
func CountNonZero(mask *image.Gray, rect image.Rectangle) int {
	r := rect.Intersect(mask.Rect)
	count := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(r.Min.X, y) : mask.PixOffset(r.Min.X, y)+r.Dx()]
		for _, v := range row {
			if v != 0 {
				count++
			}
		}
	}
	return count
}

// MaskResult is a preprocessed mask encoded for transport.
type MaskResult struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	ForegroundPixels  int     `json:"foreground_pixels"`
	ForegroundPercent float64 `json:"foreground_percent"`
	Params            Params  `json:"params"`
	ImageBase64       string  `json:"image_base64"`
	MimeType          string  `json:"mime_type"`
}

// EncodeMask wraps mask with summary statistics and a base64 PNG rendering.
func EncodeMask(mask *image.Gray, p Params) (*MaskResult, error) {
	encoded, err := EncodePNG(mask)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}

	b := mask.Bounds()
	fg := CountNonZero(mask, b)
	pct := 0.0
	if area := b.Dx() * b.Dy(); area > 0 {
		pct = float64(fg) / float64(area) * 100
	}

	return &MaskResult{
		Width:             b.Dx(),
		Height:            b.Dy(),
		ForegroundPixels:  fg,
		ForegroundPercent: pct,
		Params:            p,
		ImageBase64:       encoded,
		MimeType:          "image/png",
	}, nil
}
