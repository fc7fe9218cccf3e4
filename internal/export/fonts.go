package export

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

// FallbackFontFamily is the built-in core font used when no embeddable
// candidate exists on disk. Core fonts cover Latin-1 only; the candidate
// chain exists precisely to keep non-Latin scripts renderable.
const FallbackFontFamily = "Helvetica"

// FontSelection is the outcome of resolving the candidate chain. Empty
// Regular means the core fallback.
type FontSelection struct {
	Family  string
	Regular string
	Bold    string
}

// Embedded reports whether the selection carries a TTF to embed.
func (s FontSelection) Embedded() bool { return s.Regular != "" }

type fontCandidate struct {
	family  string
	regular string
	bold    string
}

// Checked in priority order; the first family with a regular-weight file
// on disk wins.
var fontCandidates = []fontCandidate{
	{"DejaVuSans", "DejaVuSans.ttf", "DejaVuSans-Bold.ttf"},
	{"NotoSans", "NotoSans-Regular.ttf", "NotoSans-Bold.ttf"},
	{"FreeSans", "FreeSans.ttf", "FreeSansBold.ttf"},
}

var (
	fontMu    sync.Mutex
	fontCache = make(map[string]FontSelection)
)

// ResolveFonts walks the candidate chain under fontsDir once per process
// per directory; repeated calls return the cached selection.
func ResolveFonts(fontsDir string) FontSelection {
	fontMu.Lock()
	defer fontMu.Unlock()

	if sel, ok := fontCache[fontsDir]; ok {
		return sel
	}

	sel := FontSelection{Family: FallbackFontFamily}
	for _, c := range fontCandidates {
		regular := filepath.Join(fontsDir, c.regular)
		if _, err := os.Stat(regular); err != nil {
			continue
		}
		sel = FontSelection{Family: c.family, Regular: regular}
		if bold := filepath.Join(fontsDir, c.bold); fileExists(bold) {
			sel.Bold = bold
		}
		break
	}

	fontCache[fontsDir] = sel
	return sel
}

// RegisterFonts registers the selection on one document and returns the
// family name to use with SetFont. Registration is per document and cheap;
// the expensive chain resolution is what ResolveFonts caches.
func RegisterFonts(pdf *gofpdf.Fpdf, sel FontSelection) string {
	if !sel.Embedded() {
		return FallbackFontFamily
	}
	pdf.AddUTF8Font(sel.Family, "", sel.Regular)
	if sel.Bold != "" {
		pdf.AddUTF8Font(sel.Family, "B", sel.Bold)
	} else {
		pdf.AddUTF8Font(sel.Family, "B", sel.Regular)
	}
	return sel.Family
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
