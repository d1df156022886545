package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

func TestParseFamily(t *testing.T) {
	tests := []struct {
		in   string
		want Family
	}{
		{"Chonburi", Chonburi},
		{"open sans", OpenSans},
		{"OpenSans", OpenSans},
		{" LATO ", Lato},
	}
	for _, tt := range tests {
		got, err := ParseFamily(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFamily(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFamily("Comic Sans"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("expected ErrUnknownFamily, got %v", err)
	}
}

func TestFamiliesMenu(t *testing.T) {
	if len(Families()) != 6 {
		t.Fatalf("expected 6 families, got %d", len(Families()))
	}
	if OpenSans.FileStem() != "OpenSans" {
		t.Fatalf("FileStem = %q", OpenSans.FileStem())
	}
}

func TestFaceFallsBackToGoFonts(t *testing.T) {
	lib := NewLibrary(nil)
	reg, err := lib.Face(Chonburi, 40, false)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	bld, err := lib.Face(Chonburi, 40, true)
	if err != nil {
		t.Fatalf("Face bold: %v", err)
	}
	wr := font.MeasureString(reg, "Thumbnail")
	wb := font.MeasureString(bld, "Thumbnail")
	if wr <= 0 || wb <= 0 {
		t.Fatalf("expected positive advances, got %v %v", wr, wb)
	}
	if wr == wb {
		t.Fatalf("bold fallback should differ from regular")
	}
}

func TestFaceIsCached(t *testing.T) {
	lib := NewLibrary(nil)
	a, _ := lib.Face(Roboto, 25, false)
	b, _ := lib.Face(Roboto, 25, false)
	if a != b {
		t.Fatal("expected cached face to be reused")
	}
	if _, err := lib.Face(Roboto, 0, false); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Poppins-Regular.ttf"), gomono.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	lib := NewLibrary(nil)
	n, err := lib.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 1 {
		t.Fatalf("loaded %d files, want 1", n)
	}
	if !lib.Has(Poppins, false) || lib.Has(Poppins, true) {
		t.Fatal("unexpected Has result")
	}

	// gomono is monospaced: "iiii" and "MMMM" advance the same.
	face, err := lib.Face(Poppins, 30, false)
	if err != nil {
		t.Fatal(err)
	}
	if font.MeasureString(face, "iiii") != font.MeasureString(face, "MMMM") {
		t.Fatal("expected loaded monospace font to be used")
	}
	// Bold without a bold file uses the family's regular file.
	boldFace, _ := lib.Face(Poppins, 30, true)
	if font.MeasureString(boldFace, "iiii") != font.MeasureString(boldFace, "MMMM") {
		t.Fatal("expected bold to fall back to the family regular")
	}
}

func TestLoadDirMissing(t *testing.T) {
	lib := NewLibrary(nil)
	if n, err := lib.LoadDir(""); n != 0 || err != nil {
		t.Fatalf("empty dir: %d %v", n, err)
	}
	if _, err := lib.LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	lib := NewLibrary(nil)
	if err := lib.Load(Lato, false, []byte("not a font")); err == nil {
		t.Fatal("expected parse error")
	}
}
