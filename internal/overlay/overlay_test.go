package overlay

import (
	"image"
	"math/rand"
	"testing"
)

func TestLayoutCenterCrop(t *testing.T) {
	// scale = max(800/400, 600/400) = 2.0 -> 800x800, centered
	rect, err := Layout(PlacementCenterCrop, 800, 600, 400, 400)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := rect.Dx(), 800; got != want {
		t.Errorf("width = %d, want %d", got, want)
	}
	if got, want := rect.Dy(), 800; got != want {
		t.Errorf("height = %d, want %d", got, want)
	}
	if got, want := rect.Min.X, 0; got != want {
		t.Errorf("left = %d, want %d", got, want)
	}
	if got, want := rect.Min.Y, -100; got != want {
		t.Errorf("top = %d, want %d", got, want)
	}
}

func TestLayoutCenterCropCoversBackground(t *testing.T) {
	cases := []struct {
		bgW, bgH, fgW, fgH int
	}{
		{800, 600, 400, 400},
		{600, 800, 400, 400},
		{1000, 100, 300, 500},
		{99, 1001, 640, 480},
	}
	for _, tc := range cases {
		rect, err := Layout(PlacementCenterCrop, tc.bgW, tc.bgH, tc.fgW, tc.fgH)
		if err != nil {
			t.Fatal(err)
		}
		bg := image.Rect(0, 0, tc.bgW, tc.bgH)
		// Truncation may shave a pixel, never more.
		if rect.Min.X > 0 || rect.Min.Y > 0 || rect.Max.X < tc.bgW-1 || rect.Max.Y < tc.bgH-1 {
			t.Errorf("center_crop %v does not cover background %v", rect, bg)
		}
	}
}

func TestLayoutBottom(t *testing.T) {
	// scale = 800/400 = 2.0 -> 800x1600, bottom anchored
	rect, err := Layout(PlacementBottom, 800, 600, 400, 800)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := rect.Dx(), 800; got != want {
		t.Errorf("width = %d, want %d", got, want)
	}
	if got, want := rect.Dy(), 1600; got != want {
		t.Errorf("height = %d, want %d", got, want)
	}
	if got, want := rect.Min.X, 0; got != want {
		t.Errorf("left = %d, want %d", got, want)
	}
	if got, want := rect.Min.Y, -1000; got != want {
		t.Errorf("top = %d, want %d", got, want)
	}
}

func TestLayoutBottomAnchorsBottomEdge(t *testing.T) {
	rect, err := Layout(PlacementBottom, 500, 700, 250, 100)
	if err != nil {
		t.Fatal(err)
	}
	if rect.Max.Y != 700 {
		t.Errorf("bottom edge = %d, want 700", rect.Max.Y)
	}
	if rect.Dy() != 200 {
		t.Errorf("height = %d, want 200", rect.Dy())
	}
}

func TestLayoutUnknownPlacement(t *testing.T) {
	_, err := Layout(Placement("sideways"), 800, 600, 400, 400)
	if err == nil {
		t.Fatal("expected error for unknown placement")
	}
}

func TestCatalog(t *testing.T) {
	assets := Catalog("foreground")
	if len(assets) == 0 {
		t.Fatal("catalog must not be empty")
	}
	seen := make(map[string]bool)
	for _, a := range assets {
		if a.Name == "" || a.Foreground == "" {
			t.Errorf("incomplete asset: %+v", a)
		}
		if seen[a.Name] {
			t.Errorf("duplicate asset name %q", a.Name)
		}
		seen[a.Name] = true
		if a.Placement != PlacementCenterCrop && a.Placement != PlacementBottom {
			t.Errorf("asset %q has unknown placement %q", a.Name, a.Placement)
		}
	}
}

func TestPickSeededIsDeterministic(t *testing.T) {
	assets := Catalog("foreground")
	a := Pick(rand.New(rand.NewSource(1)), assets)
	b := Pick(rand.New(rand.NewSource(1)), assets)
	if a.Name != b.Name {
		t.Errorf("same seed picked %q and %q", a.Name, b.Name)
	}
}

func TestPickReachesAllAssets(t *testing.T) {
	assets := Catalog("foreground")
	rng := rand.New(rand.NewSource(42))
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[Pick(rng, assets).Name] = true
	}
	if len(seen) != len(assets) {
		t.Errorf("expected all %d assets picked over 100 draws, got %d", len(assets), len(seen))
	}
}
