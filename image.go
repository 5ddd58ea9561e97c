package bsptree

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/bmp"
)

const (
	imageSize   = 512
	imageMargin = 1.0
)

var (
	planeColor  = color.RGBA{255, 0, 0, 255}
	anchorColor = color.RGBA{0, 255, 0, 255}
	rootColor   = color.RGBA{255, 255, 0, 255}
)

// Image writes a top-down (X/Z) BMP of the tree to path: every anchor as a small square and
// every partition plane as a line through its anchor.
func (t *Tree) Image(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New("creating tree image failed").
			WithTag("path", path).
			Wrap(err)
	}

	if err := t.EncodeImage(f); err != nil {
		f.Close()
		return errors.New("writing tree image failed").
			WithTag("path", path).
			Wrap(err)
	}

	return f.Close()
}

// EncodeImage renders the same picture as Image to w.
func (t *Tree) EncodeImage(w io.Writer) error {
	return bmp.Encode(w, t.render())
}

func (t *Tree) render() *image.RGBA {
	minX, minZ := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxZ := -float32(math.MaxFloat32), -float32(math.MaxFloat32)

	t.Walk(func(e Entity, _ int) bool {
		p := e.Position()
		minX = min(minX, p.X())
		maxX = max(maxX, p.X())
		minZ = min(minZ, p.Z())
		maxZ = max(maxZ, p.Z())
		return true
	})

	minX -= imageMargin
	minZ -= imageMargin
	maxX += imageMargin
	maxZ += imageMargin

	scale := float32(imageSize-1) / max(maxX-minX, maxZ-minZ)
	width := int((maxX-minX)*scale) + 1
	height := int((maxZ-minZ)*scale) + 1

	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	toPixel := func(x, z float32) (int, int) {
		return int((x - minX) * scale), int((z - minZ) * scale)
	}

	// Plane trace in the X/Z projection runs perpendicular to the normal's X/Z part.
	dir := mgl32.Vec2{-t.normal.Z(), t.normal.X()}
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	span := float32(width + height)

	Line := func(p mgl32.Vec3) {
		if dir.Len() == 0 {
			return
		}
		for s := -span; s <= span; s += 0.5 {
			x, y := toPixel(p.X()+dir.X()*s/scale, p.Z()+dir.Y()*s/scale)
			frame.Set(x, y, planeColor)
		}
	}

	Square := func(p mgl32.Vec3, c color.Color) {
		cx, cy := toPixel(p.X(), p.Z())
		for x := cx - 2; x <= cx+2; x++ {
			for y := cy - 2; y <= cy+2; y++ {
				frame.Set(x, y, c)
			}
		}
	}

	t.Walk(func(e Entity, _ int) bool {
		Line(e.Position())
		return true
	})

	t.Walk(func(e Entity, depth int) bool {
		c := anchorColor
		if depth == 0 {
			c = rootColor
		}
		Square(e.Position(), c)
		return true
	})

	return frame
}
