// Package fonts resolves the overlay font families to renderable faces.
//
// Families come from a fixed menu. TTF/OTF files for them can be loaded from a
// directory; any family without a loaded file renders with the Go fonts so a
// render never fails for lack of a font file.
package fonts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Family is one of the selectable overlay typefaces.
type Family string

const (
	Chonburi   Family = "Chonburi"
	Roboto     Family = "Roboto"
	OpenSans   Family = "Open Sans"
	Montserrat Family = "Montserrat"
	Poppins    Family = "Poppins"
	Lato       Family = "Lato"
)

// Defaults used when a session starts.
const (
	DefaultText     = Chonburi
	DefaultLocation = Poppins
)

// ErrUnknownFamily is returned for names outside the menu.
var ErrUnknownFamily = errors.New("unknown font family")

// Families returns the menu in display order.
func Families() []Family {
	return []Family{Chonburi, Roboto, OpenSans, Montserrat, Poppins, Lato}
}

// ParseFamily matches a family name case-insensitively, ignoring spaces.
func ParseFamily(s string) (Family, error) {
	key := squash(s)
	for _, f := range Families() {
		if squash(string(f)) == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

func squash(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// FileStem is the Google Fonts style file prefix, e.g. "OpenSans".
func (f Family) FileStem() string { return strings.ReplaceAll(string(f), " ", "") }

type fontKey struct {
	family Family
	bold   bool
}

type faceKey struct {
	fontKey
	size float64
}

// maxCachedFaces bounds the face cache; preview widths change sizes freely.
const maxCachedFaces = 64

// Library holds parsed fonts and a cache of sized faces. The library is safe
// for concurrent use; the faces it returns are not.
type Library struct {
	mu    sync.Mutex
	fonts map[fontKey]*opentype.Font
	faces map[faceKey]font.Face
	log   *slog.Logger

	regular *opentype.Font
	bold    *opentype.Font
}

// NewLibrary returns a library that only knows the Go fallback fonts.
func NewLibrary(logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("parse embedded goregular: %v", err))
	}
	bld, err := opentype.Parse(gobold.TTF)
	if err != nil {
		panic(fmt.Sprintf("parse embedded gobold: %v", err))
	}
	return &Library{
		fonts:   make(map[fontKey]*opentype.Font),
		faces:   make(map[faceKey]font.Face),
		log:     logger.With(slog.String("component", "fonts")),
		regular: reg,
		bold:    bld,
	}
}

// Load parses font data and registers it for family in the given weight.
func (l *Library) Load(family Family, bold bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fonts[fontKey{family: family, bold: bold}] = f
	for k := range l.faces {
		if k.family == family && k.bold == bold {
			delete(l.faces, k)
		}
	}
	return nil
}

// LoadFile reads a TTF/OTF file into the library.
func (l *Library) LoadFile(family Family, bold bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return l.Load(family, bold, data)
}

// LoadDir looks for <Stem>-Regular and <Stem>-Bold files (.ttf or .otf) for
// every family and loads what it finds. It returns the number of files loaded.
// Missing files are not an error.
func (l *Library) LoadDir(dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("font dir: %w", err)
	}
	n := 0
	for _, fam := range Families() {
		for _, bold := range []bool{false, true} {
			weight := "Regular"
			if bold {
				weight = "Bold"
			}
			for _, ext := range []string{".ttf", ".otf"} {
				path := filepath.Join(dir, fam.FileStem()+"-"+weight+ext)
				if _, err := os.Stat(path); err != nil {
					continue
				}
				if err := l.LoadFile(fam, bold, path); err != nil {
					return n, err
				}
				n++
				break
			}
		}
	}
	l.log.Debug("font dir scanned", slog.String("dir", dir), slog.Int("loaded", n))
	return n, nil
}

// Has reports whether a font file was loaded for family and weight.
func (l *Library) Has(family Family, bold bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.fonts[fontKey{family: family, bold: bold}]
	return ok
}

// Face returns a face of size pixels for family. Bold falls back to the
// family's regular file before falling back to the Go fonts.
func (l *Library) Face(family Family, size float64, bold bool) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", size)
	}
	key := faceKey{fontKey: fontKey{family: family, bold: bold}, size: size}

	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.faces[key]; ok {
		return f, nil
	}

	src := l.resolve(family, bold)
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("face %s %.2fpx: %w", family, size, err)
	}
	if len(l.faces) >= maxCachedFaces {
		clear(l.faces)
	}
	l.faces[key] = face
	return face, nil
}

func (l *Library) resolve(family Family, bold bool) *opentype.Font {
	if f, ok := l.fonts[fontKey{family: family, bold: bold}]; ok {
		return f
	}
	if bold {
		if f, ok := l.fonts[fontKey{family: family}]; ok {
			return f
		}
		return l.bold
	}
	return l.regular
}
