package match

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/entropydec/gsrb/layout"
	"github.com/pkg/errors"
)

var (
	colorGreen = color.RGBA{0, 255, 0, 255}
	colorBlue  = color.RGBA{0, 0, 255, 255}
	colorRed   = color.RGBA{255, 0, 0, 255}
)

// Diff is the attribute-level record for a matched pair whose attributes
// changed between versions, keyed by attribute name to (old, new) values.
// It holds every attribute layout.IsDiff compares, unchanged ones included.
type Diff map[string][2]string

// canvas composites two screenshots side by side for overlay drawing,
// returning the composed image and the new screenshot's x offset.
func canvas(oldPNG, newPNG []byte) (*image.RGBA, int, error) {
	oldImg, err := png.Decode(bytes.NewReader(oldPNG))
	if err != nil {
		return nil, 0, errors.Wrap(err, "decode old screenshot")
	}
	newImg, err := png.Decode(bytes.NewReader(newPNG))
	if err != nil {
		return nil, 0, errors.Wrap(err, "decode new screenshot")
	}
	offset := oldImg.Bounds().Dx()
	height := oldImg.Bounds().Dy()
	if h := newImg.Bounds().Dy(); h > height {
		height = h
	}
	width := offset + newImg.Bounds().Dx()

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(out, image.Rect(0, 0, offset, oldImg.Bounds().Dy()), oldImg, oldImg.Bounds().Min, xdraw.Src)
	xdraw.Draw(out, image.Rect(offset, 0, width, newImg.Bounds().Dy()), newImg, newImg.Bounds().Min, xdraw.Src)
	return out, offset, nil
}

func strokeRect(img draw.Image, x0, y0, x1, y1 int, c color.Color, width int) {
	for w := 0; w < width; w++ {
		drawHLine(img, x0, x1, y0+w, c)
		drawHLine(img, x0, x1, y1-w, c)
		drawVLine(img, x0+w, y0, y1, c)
		drawVLine(img, x1-w, y0, y1, c)
	}
}

func drawHLine(img draw.Image, x0, x1, y int, c color.Color) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		img.Set(x, y, c)
	}
}

func drawVLine(img draw.Image, x, y0, y1 int, c color.Color) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

func drawLine(img draw.Image, x0, y0, x1, y1 int, c color.Color, width int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy
	x, y := x0, y0
	for {
		for w := -width / 2; w <= width/2; w++ {
			img.Set(x+w, y, c)
			img.Set(x, y+w, c)
		}
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}

// DrawMatch renders old's and new's screenshots side by side, overlaying
// the match result: matched pairs in green with a connecting line (only
// when their attributes differ, producing a Diff entry for each), possible
// matches in blue, and unmatched widgets in red.
func DrawMatch(old, new *layout.Layout) (*image.RGBA, []Diff, error) {
	img, offset, err := canvas(old.PNG, new.PNG)
	if err != nil {
		return nil, nil, err
	}
	result := Layout(old, new)

	var diffs []Diff
	for k, v := range result.Matched {
		diff := Diff{}
		diffPairs := map[string][2]string{}
		if layout.IsDiff(k, v, diffPairs) {
			for attr, pair := range diffPairs {
				diff[attr] = pair
			}
			diffs = append(diffs, diff)

			ac, bc := layout.Coordinates(k), layout.Coordinates(v)
			strokeRect(img, ac.X0, ac.Y0, ac.X1, ac.Y1, colorGreen, 5)
			strokeRect(img, bc.X0+offset, bc.Y0, bc.X1+offset, bc.Y1, colorGreen, 5)
			center0x, center0y := (ac.X0+ac.X1)/2, (ac.Y0+ac.Y1)/2
			center1x, center1y := (bc.X0+bc.X1)/2+offset, (bc.Y0+bc.Y1)/2
			drawLine(img, center0x, center0y, center1x, center1y, colorGreen, 3)
		}
	}

	for k, candidates := range result.Possible {
		ac := layout.Coordinates(k)
		strokeRect(img, ac.X0, ac.Y0, ac.X1, ac.Y1, colorBlue, 5)
		center0x, center0y := (ac.X0+ac.X1)/2, (ac.Y0+ac.Y1)/2
		for v := range candidates {
			bc := layout.Coordinates(v)
			strokeRect(img, bc.X0+offset, bc.Y0, bc.X1+offset, bc.Y1, colorBlue, 5)
			center1x, center1y := (bc.X0+bc.X1)/2+offset, (bc.Y0+bc.Y1)/2
			drawLine(img, center0x, center0y, center1x, center1y, colorBlue, 3)
		}
	}

	for n := range result.OldNotMatched {
		c := layout.Coordinates(n)
		strokeRect(img, c.X0, c.Y0, c.X1, c.Y1, colorRed, 5)
	}
	for n := range result.NewNotMatched {
		c := layout.Coordinates(n)
		strokeRect(img, c.X0+offset, c.Y0, c.X1+offset, c.Y1, colorRed, 5)
	}

	return img, diffs, nil
}
