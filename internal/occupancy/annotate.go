package occupancy

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/parkspot-mcp/internal/imaging"
)

// Style controls how Annotate draws a report over the lot image.
type Style struct {
	FreeColor     color.RGBA
	OccupiedColor color.RGBA
	TextColor     color.RGBA

	// Thickness is the slot outline width in pixels.
	Thickness int

	// LabelAt is the baseline origin of the "Free: F / T" label.
	LabelAt image.Point
}

// DefaultStyle draws free slots green, occupied slots red, and a white label.
func DefaultStyle() Style {
	return Style{
		FreeColor:     color.RGBA{0, 255, 0, 255},
		OccupiedColor: color.RGBA{255, 0, 0, 255},
		TextColor:     color.RGBA{255, 255, 255, 255},
		Thickness:     2,
		LabelAt:       image.Pt(50, 50),
	}
}

// ParseStyle builds a Style from hex colour strings such as "#00FF00".
func ParseStyle(freeHex, occupiedHex string) (Style, error) {
	s := DefaultStyle()

	free, err := parseHexColor(freeHex)
	if err != nil {
		return s, fmt.Errorf("invalid free colour: %w", err)
	}
	occupied, err := parseHexColor(occupiedHex)
	if err != nil {
		return s, fmt.Errorf("invalid occupied colour: %w", err)
	}

	s.FreeColor = free
	s.OccupiedColor = occupied
	return s, nil
}

func parseHexColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}, nil
}

// Annotate returns a copy of src with every slot of report outlined in its
// state's colour and the free count written in the top-left corner.
// Outlines straddle the slot border, so they reach Thickness/2 pixels
// beyond the slot.
func Annotate(src image.Image, report *Report, style Style) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	for _, s := range report.Slots {
		c := style.OccupiedColor
		if s.State == Free {
			c = style.FreeColor
		}
		drawOutline(dst, image.Rect(s.X, s.Y, s.X+s.Width, s.Y+s.Height), c, style.Thickness)
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(style.TextColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(bounds.Min.X+style.LabelAt.X, bounds.Min.Y+style.LabelAt.Y),
	}
	d.DrawString(report.Summary())

	return dst
}

// drawOutline strokes the border of r centred on its edges: a thickness of
// 2 covers one pixel outside the line and one inside. The right and bottom
// lines run along r.Max, so the outline spans the slot's full extent.
// Parts outside dst are clipped.
func drawOutline(dst draw.Image, r image.Rectangle, c color.RGBA, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	lo := thickness / 2
	x0, y0 := r.Min.X-lo, r.Min.Y-lo
	x1, y1 := r.Max.X-lo+thickness, r.Max.Y-lo+thickness

	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(x0, y0, x1, y0+thickness),                 // top
		image.Rect(x0, r.Max.Y-lo, x1, y1),                   // bottom
		image.Rect(x0, y0, x0+thickness, y1),                 // left
		image.Rect(r.Max.X-lo, y0, r.Max.X-lo+thickness, y1), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), u, image.Point{}, draw.Src)
	}
}

// AnnotationResult is an annotated frame encoded for transport.
type AnnotationResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeAnnotation renders report over src and encodes it as base64 PNG.
func EncodeAnnotation(src image.Image, report *Report, style Style) (*AnnotationResult, error) {
	annotated := Annotate(src, report, style)
	encoded, err := imaging.EncodePNG(annotated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	return &AnnotationResult{
		Width:       annotated.Bounds().Dx(),
		Height:      annotated.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
