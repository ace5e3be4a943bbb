// Package overlay holds the festive overlay catalog and the compositor that
// draws a catalog asset over a user photo.
package overlay

import (
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
)

// Placement is the rule mapping an overlay's size to its scale and offset
// atop a background image.
type Placement string

const (
	// PlacementCenterCrop scales the overlay uniformly until it covers the
	// whole background and centers it, cropping the overflow.
	PlacementCenterCrop Placement = "center_crop"
	// PlacementBottom scales the overlay uniformly to the background width
	// and anchors its bottom edge to the background's bottom edge.
	PlacementBottom Placement = "bottom"
)

// Asset is one entry of the fixed overlay catalog.
type Asset struct {
	Name       string
	Foreground string
	Placement  Placement
}

// Catalog returns the shipped overlay assets with foregrounds resolved under
// dir.
func Catalog(dir string) []Asset {
	return []Asset{
		{Name: "snow", Foreground: filepath.Join(dir, "snow.png"), Placement: PlacementCenterCrop},
		{Name: "garland", Foreground: filepath.Join(dir, "garland.png"), Placement: PlacementBottom},
	}
}

// Pick selects one asset uniformly at random. The rng is injected so tests
// can seed it.
func Pick(rng *rand.Rand, assets []Asset) Asset {
	return assets[rng.Intn(len(assets))]
}

// Layout computes the rectangle the scaled overlay occupies over a background
// of the given size. Offsets may be negative: the overlay is cropped to the
// background when drawn.
func Layout(placement Placement, bgW, bgH, fgW, fgH int) (image.Rectangle, error) {
	var scale float64
	switch placement {
	case PlacementCenterCrop:
		xScale := float64(bgW) / float64(fgW)
		yScale := float64(bgH) / float64(fgH)
		scale = xScale
		if yScale > scale {
			scale = yScale
		}
	case PlacementBottom:
		scale = float64(bgW) / float64(fgW)
	default:
		return image.Rectangle{}, fmt.Errorf("unknown placement %q", placement)
	}

	scaledW := scale * float64(fgW)
	scaledH := scale * float64(fgH)
	left := (float64(bgW) - scaledW) / 2
	var top float64
	if placement == PlacementBottom {
		top = float64(bgH) - scaledH
	} else {
		top = (float64(bgH) - scaledH) / 2
	}

	min := image.Pt(int(left), int(top))
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(int(scaledW), int(scaledH)))}, nil
}
