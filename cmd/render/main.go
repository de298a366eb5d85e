// Package main renders a single avatar to a file without starting the server.
//
// Usage:
//
//	go run ./cmd/render -address So11111111111111111111111111111111111111112 -format png -out avatar.png
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solana-avatar-lab/internal/assets"
	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/identity"
	"solana-avatar-lab/internal/logger"
	"solana-avatar-lab/internal/raster"
	"solana-avatar-lab/internal/render"
)

func main() {
	address := flag.String("address", "", "Solana address to render (required)")
	bal := flag.Float64("balance", 0, "Token balance used for tier gating")
	rendererName := flag.String("renderer", "tier", "Renderer: tier, classic or blob")
	format := flag.String("format", "svg", "Output format: svg or png")
	density := flag.Float64("density", raster.BaseDensity, "PNG density in DPI (72 renders 800x800)")
	assetsDir := flag.String("assets", "assets", "Directory holding the avatar bitmaps")
	brandName := flag.String("brand", render.DefaultBrand.Name, "Brand title")
	footer := flag.String("footer", render.DefaultBrand.FooterURL, "Footer text")
	out := flag.String("out", "", "Output file (default: <address>.<format>)")
	verbose := flag.Bool("v", false, "Print the derived identity")
	flag.Parse()

	if err := run(*address, *bal, *rendererName, *format, *density, *assetsDir,
		render.Brand{Name: *brandName, FooterURL: *footer}, *out, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
}

func run(address string, bal float64, rendererName, format string, density float64,
	assetsDir string, brand render.Brand, out string, verbose bool) error {
	if err := domain.ValidateAddress(address); err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q: use svg or png", format)
	}

	cache := assets.NewCache(assetsDir, logger.Discard())
	var r render.Renderer
	switch rendererName {
	case "tier":
		r = render.NewTierRenderer(brand, cache)
	case "classic":
		r = render.NewClassicRenderer(brand, cache)
	case "blob":
		r = render.NewBlobRenderer(brand, cache)
	default:
		return fmt.Errorf("unknown renderer %q: use tier, classic or blob", rendererName)
	}

	id, err := identity.Derive(address, bal)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Printf("Address:    %s (%s)\n", id.Address, id.Kind)
		fmt.Printf("Hash:       %d\n", id.Hash)
		fmt.Printf("Serial:     #%s\n", id.SerialNumber)
		fmt.Printf("Rarity:     %s\n", id.Rarity)
		fmt.Printf("Tier:       %d (%s)\n", id.Tier, id.TierName)
		fmt.Printf("Color:      %s\n", id.AvatarColor)
		fmt.Printf("Background: %s %v\n", id.Background.Mode(), id.Background.Colors())
		fmt.Printf("Avatar:     %s\n", assets.Name(id.AvatarIndex()))
	}

	data, err := r.Render(id)
	if err != nil {
		return err
	}
	if format == "png" {
		rz, err := raster.New()
		if err != nil {
			return err
		}
		if data, err = rz.Rasterize(data, density); err != nil {
			return err
		}
	}

	if out == "" {
		out = address + "." + format
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
	return nil
}
