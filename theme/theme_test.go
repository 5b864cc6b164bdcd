package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testGPL = `GIMP Palette
Name: two tone
Columns: 2
# comment
  0   0   0	Black
255 255 255	White
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(testGPL))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "two tone" || len(p.Colors) != 2 {
		t.Fatalf("palette %+v", p)
	}
	if got := p.Lookup(0.5); got != (RGB{127, 127, 127}) {
		t.Errorf("Lookup(0.5) = %v", got)
	}
	if got := p.Index(9); got != (RGB{255, 255, 255}) {
		t.Errorf("Index(9) = %v", got)
	}
}

func TestParseGPLEmpty(t *testing.T) {
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n")); err == nil {
		t.Error("expected error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	if err != nil || p != Plasma {
		t.Errorf("empty path = %v, %v", p, err)
	}

	p, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl"))
	if err == nil || p != Plasma {
		t.Errorf("missing file = %v, %v", p, err)
	}

	path := filepath.Join(t.TempDir(), "two.gpl")
	if err := os.WriteFile(path, []byte(testGPL), 0644); err != nil {
		t.Fatal(err)
	}
	p, err = LoadOrDefault(path)
	if err != nil || p.Name != "two tone" {
		t.Errorf("file = %v, %v", p, err)
	}
}

func TestVelocityColorStaysInRange(t *testing.T) {
	th := New(nil)
	if th.Velocity(-1) != th.Muted() || th.Velocity(2) != th.Success() {
		t.Error("velocity color not clamped to its roles")
	}
}
