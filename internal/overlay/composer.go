package overlay

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // background photos may be PNG despite the .jpg cache name
	"os"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"
)

const jpegQuality = 90

// Composer writes composited photos into outDir.
type Composer struct {
	outDir string
}

// NewComposer creates a Composer that writes results under outDir.
func NewComposer(outDir string) *Composer {
	return &Composer{outDir: outDir}
}

// Compose draws the asset's foreground over the photo at backgroundPath
// according to the asset's placement and returns the path of the resulting
// JPEG. Any failure (unreadable inputs, unknown placement, write error) is
// returned as an error; nothing is written on failure paths before encoding.
func (c *Composer) Compose(backgroundPath string, asset Asset) (string, error) {
	bg, err := decodeImage(backgroundPath)
	if err != nil {
		return "", fmt.Errorf("read background %s: %w", backgroundPath, err)
	}
	fg, err := decodeImage(asset.Foreground)
	if err != nil {
		return "", fmt.Errorf("read foreground %s: %w", asset.Foreground, err)
	}

	bounds := bg.Bounds()
	rect, err := Layout(asset.Placement, bounds.Dx(), bounds.Dy(), fg.Bounds().Dx(), fg.Bounds().Dy())
	if err != nil {
		return "", err
	}

	canvas := image.NewRGBA(bounds)
	xdraw.Draw(canvas, bounds, bg, bounds.Min, xdraw.Src)
	xdraw.BiLinear.Scale(canvas, rect, fg, fg.Bounds(), xdraw.Over, nil)

	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := filepath.Join(c.outDir, fmt.Sprintf("%d.jpg", time.Now().UnixMilli()))
	file, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", out, err)
	}
	if err := jpeg.Encode(file, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		file.Close()
		os.Remove(out)
		return "", fmt.Errorf("encode %s: %w", out, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", out, err)
	}
	return out, nil
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}
