package export

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/jung-kurt/gofpdf"
	fpdi "github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"github.com/webitel/event-exporter/internal/errors"
	"github.com/webitel/event-exporter/internal/model"
)

const overlayMargin = 16.0 // pt

// QROverlay is stamped onto pages imported from external sources, which
// carry no composed footer of their own.
type QROverlay struct {
	Image    []byte // PNG
	Size     int    // points, already clamped by the caller
	Position model.QRPosition
}

// MergeResult is the final document plus the page accounting the merge
// contract promises: Pages == ImportedPages + pages of the rendered report.
type MergeResult struct {
	Data          []byte
	Pages         int
	ImportedPages int
}

// Merge appends every page of each source buffer, strictly in input order,
// followed by every page of the rendered report. A source that cannot be
// read contributes zero pages and is logged; it never aborts the merge. The
// overlay QR lands only on pages imported from the sources - report pages
// already carry their footer QR and must not be stamped twice.
func Merge(sources [][]byte, rendered []byte, overlay *QROverlay, log *slog.Logger) (*MergeResult, error) {
	if log == nil {
		log = slog.Default()
	}

	out := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt"})
	out.SetMargins(0, 0, 0)
	out.SetAutoPageBreak(false, 0)

	qrName := ""
	if overlay != nil && len(overlay.Image) > 0 {
		if t := detectImageType(overlay.Image); t != "" {
			qrName = "overlay_qr"
			out.RegisterImageOptionsReader(qrName, gofpdf.ImageOptions{ImageType: t}, bytes.NewReader(overlay.Image))
		}
	}

	imported := 0
	for i, src := range sources {
		n := appendPages(out, src, log, func(w, h float64) {
			if qrName != "" {
				stampOverlay(out, qrName, overlay, w, h)
			}
		})
		if n == 0 {
			log.Warn("export.merge.source_skipped", "index", i)
		}
		imported += n
	}

	reportPages := appendPages(out, rendered, log, nil)

	if out.Err() {
		return nil, errors.Internal(out.Error().Error(), errors.WithID("export.merge.render"))
	}

	var buf bytes.Buffer
	if err := out.Output(&buf); err != nil {
		return nil, errors.Internal(err.Error(), errors.WithID("export.merge.output"))
	}
	return &MergeResult{
		Data:          buf.Bytes(),
		Pages:         imported + reportPages,
		ImportedPages: imported,
	}, nil
}

// appendPages imports every page of one PDF buffer into out, calling
// decorate after each page is placed. gofpdi reports unreadable input by
// panicking, so the import is fenced with recover. All parsing happens
// before the first page is added to out, which keeps a corrupt source from
// leaving half-imported pages behind.
func appendPages(out *gofpdf.Fpdf, src []byte, log *slog.Logger, decorate func(w, h float64)) (pages int) {
	if len(src) == 0 {
		return 0
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("export.merge.unreadable_source", "error", fmt.Sprint(r))
		}
	}()

	imp := fpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))

	templates := []int{imp.ImportPageFromStream(out, &rs, 1, "/MediaBox")}
	sizes := imp.GetPageSizes()
	total := len(sizes)
	for p := 2; p <= total; p++ {
		templates = append(templates, imp.ImportPageFromStream(out, &rs, p, "/MediaBox"))
	}

	for idx, tpl := range templates {
		w, h := 595.28, 841.89 // A4 fallback
		if box, ok := sizes[idx+1]["/MediaBox"]; ok && box["w"] > 0 && box["h"] > 0 {
			w, h = box["w"], box["h"]
		}
		orientation := "P"
		if w > h {
			orientation = "L"
		}
		out.AddPageFormat(orientation, gofpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(out, tpl, 0, 0, w, h)
		if decorate != nil {
			decorate(w, h)
		}
		pages++
	}
	return pages
}

func stampOverlay(out *gofpdf.Fpdf, name string, overlay *QROverlay, w, h float64) {
	size := float64(overlay.Size)
	y := h - size - overlayMargin
	var x float64
	switch overlay.Position {
	case model.QRBottomLeft:
		x = overlayMargin
	case model.QRBottomCenter:
		x = (w - size) / 2
	default:
		x = w - size - overlayMargin
	}
	out.ImageOptions(name, x, y, size, size, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}
