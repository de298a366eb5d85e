// Package main writes placeholder avatar bitmaps (avatar-0.png .. avatar-5.png
// and the shared avatar.png) so the service can run without artwork.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"solana-avatar-lab/internal/assets"
)

func main() {
	dir := flag.String("dir", "assets", "Output directory")
	size := flag.Int("size", 320, "Bitmap width and height in pixels")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if err := run(*dir, *size, *force); err != nil {
		fmt.Fprintf(os.Stderr, "genassets: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, size int, force bool) error {
	if size < 16 || size > 2048 {
		return fmt.Errorf("size %d out of range [16, 2048]", size)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size) * 0.45,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("create font face: %w", err)
	}
	defer face.Close()

	for i := 0; i < assets.Count; i++ {
		hue := float64(i) * 360 / assets.Count
		img := placeholder(size, colorful.Hcl(hue, 0.6, 0.7), face, fmt.Sprint(i))
		if err := write(filepath.Join(dir, assets.Name(i)), img, force); err != nil {
			return err
		}
	}
	return write(filepath.Join(dir, assets.DefaultName), placeholder(size, colorful.Hcl(0, 0, 0.75), face, "?"), force)
}

// placeholder draws a shaded disc with a centered glyph on a transparent canvas.
func placeholder(size int, base colorful.Color, face font.Face, glyph string) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	r := c * 0.92
	light := base.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.35)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-c, float64(y)+0.5-c
			d := math.Hypot(dx, dy)
			if d > r+1 {
				continue
			}
			// Lighter toward the upper left.
			t := math.Max(0, math.Min(1, (dx+dy)/(2*r)+0.5))
			px := light.BlendLab(base, t).Clamped()
			cr, cg, cb := px.RGB255()
			alpha := math.Max(0, math.Min(1, r+1-d))
			img.SetNRGBA(x, y, color.NRGBA{R: cr, G: cg, B: cb, A: uint8(255 * alpha)})
		}
	}

	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 230}), Face: face}
	bounds, _ := d.BoundString(glyph)
	w := bounds.Max.X - bounds.Min.X
	h := bounds.Max.Y - bounds.Min.Y
	d.Dot = fixed.Point26_6{
		X: fixed.I(size/2) - w/2 - bounds.Min.X,
		Y: fixed.I(size/2) - h/2 - bounds.Min.Y,
	}
	d.DrawString(glyph)
	return img
}

func write(path string, img image.Image, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Skipped %s (exists)\n", path)
			return nil
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
