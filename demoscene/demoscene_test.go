package demoscene

import "testing"

func TestGenerateProducesExpectedSplatCount(t *testing.T) {
	scene := Generate(1)
	want := TorusKnotCount + SphereClusterCount
	if len(scene.Splats) != want {
		t.Fatalf("expected %d splats, got %d", want, len(scene.Splats))
	}
}

func TestGenerateIsDeterministicForSameSeed(t *testing.T) {
	a := Generate(7)
	b := Generate(7)
	for i := range a.Splats {
		if a.Splats[i].Position != b.Splats[i].Position {
			t.Fatalf("expected same seed to reproduce positions, diverged at %d", i)
			break
		}
	}
}

func TestGenerateVariesWithSeed(t *testing.T) {
	a := Generate(1)
	b := Generate(2)
	same := true
	for i := range a.Splats {
		if a.Splats[i].Position != b.Splats[i].Position {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different seeds to produce different scenes")
	}
}

func TestHSVToRGBPrimaries(t *testing.T) {
	red := hsvToRGB(0, 1, 1)
	if red.R < 0.99 || red.G > 0.01 || red.B > 0.01 {
		t.Fatalf("expected pure red at hue 0, got %+v", red)
	}
	green := hsvToRGB(120, 1, 1)
	if green.G < 0.99 || green.R > 0.01 || green.B > 0.01 {
		t.Fatalf("expected pure green at hue 120, got %+v", green)
	}
}
