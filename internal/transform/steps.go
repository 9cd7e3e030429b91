package transform

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/nmoreau/go-image-pipeline/models"
)

// Resize scales to a fixed target width, height computed from the source
// aspect ratio.
type Resize struct {
	Width int
}

func (r Resize) Name() string { return "resize" }

func (r Resize) Apply(s State) (State, models.Transformation, error) {
	if r.Width <= 0 {
		return s, models.Transformation{}, fmt.Errorf("target width must be positive, got %d", r.Width)
	}

	bounds := s.Image.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return s, models.Transformation{}, fmt.Errorf("cannot resize empty %dx%d image", srcW, srcH)
	}

	height := int(float64(r.Width)*float64(srcH)/float64(srcW) + 0.5)
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), s.Image, bounds, draw.Src, nil)
	s.Image = dst

	return s, models.Transformation{
		Type:    r.Name(),
		Details: fmt.Sprintf("width %d, height %d (aspect ratio preserved)", r.Width, height),
	}, nil
}

// Greyscale converts every pixel to its Rec. 709 luminance.
type Greyscale struct{}

func (g Greyscale) Name() string { return "greyscale" }

func (g Greyscale) Apply(s State) (State, models.Transformation, error) {
	bounds := s.Image.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, gc, b, a := s.Image.At(x, y).RGBA()
			luma := uint8((0.2126*float64(r>>8) + 0.7152*float64(gc>>8) + 0.0722*float64(b>>8)) + 0.5)
			dst.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{luma, luma, luma, uint8(a >> 8)})
		}
	}
	s.Image = dst

	return s, models.Transformation{Type: g.Name(), Details: "Rec. 709 luminance"}, nil
}

// Sepia applies the classic sepia tone matrix.
type Sepia struct{}

func (se Sepia) Name() string { return "sepia" }

func (se Sepia) Apply(s State) (State, models.Transformation, error) {
	bounds := s.Image.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := s.Image.At(x, y).RGBA()
			rf, gf, bf := float64(r>>8), float64(g>>8), float64(b>>8)
			dst.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{
				R: clamp8(0.393*rf + 0.769*gf + 0.189*bf),
				G: clamp8(0.349*rf + 0.686*gf + 0.168*bf),
				B: clamp8(0.272*rf + 0.534*gf + 0.131*bf),
				A: uint8(a >> 8),
			})
		}
	}
	s.Image = dst

	return s, models.Transformation{Type: se.Name(), Details: "sepia tone matrix"}, nil
}

// Rotate turns the image 90 degrees clockwise, swapping its dimensions.
type Rotate struct{}

func (ro Rotate) Name() string { return "rotate" }

func (ro Rotate) Apply(s State) (State, models.Transformation, error) {
	bounds := s.Image.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// 90 degrees clockwise: (x,y) -> (h-1-y, x)
			dst.Set(h-1-y, x, s.Image.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	s.Image = dst

	return s, models.Transformation{Type: ro.Name(), Details: "90 degrees clockwise"}, nil
}

// Quality fixes the output encoding quality for lossy formats. The pixels are
// untouched; the encoder picks the value up from the chain state.
type Quality struct {
	Level int
}

func (q Quality) Name() string { return "quality" }

func (q Quality) Apply(s State) (State, models.Transformation, error) {
	if q.Level < 1 || q.Level > 100 {
		return s, models.Transformation{}, fmt.Errorf("quality level must be in [1,100], got %d", q.Level)
	}
	s.Quality = q.Level

	return s, models.Transformation{
		Type:    q.Name(),
		Details: fmt.Sprintf("level %d (lossy encodings)", q.Level),
	}, nil
}

// Crop cuts a fixed rectangle at a fixed origin, measured against the image
// as left by the preceding steps. A rectangle outside the bounds is an error,
// not a silent clamp.
type Crop struct {
	X, Y          int
	Width, Height int
}

func (c Crop) Name() string { return "crop" }

func (c Crop) Apply(s State) (State, models.Transformation, error) {
	bounds := s.Image.Bounds()
	rect := image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
	if !rect.In(image.Rect(0, 0, bounds.Dx(), bounds.Dy())) {
		return s, models.Transformation{}, fmt.Errorf(
			"crop rectangle %dx%d at (%d,%d) exceeds image bounds %dx%d",
			c.Width, c.Height, c.X, c.Y, bounds.Dx(), bounds.Dy())
	}

	dst := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			dst.Set(x, y, s.Image.At(bounds.Min.X+c.X+x, bounds.Min.Y+c.Y+y))
		}
	}
	s.Image = dst

	return s, models.Transformation{
		Type:    c.Name(),
		Details: fmt.Sprintf("%dx%d at (%d,%d)", c.Width, c.Height, c.X, c.Y),
	}, nil
}

func clamp8(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v + 0.5)
}
