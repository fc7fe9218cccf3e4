package export

import (
	"fmt"
	"log/slog"

	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
)

// BuildAttachmentGallery renders each image file on its own page. Files
// that cannot be placed are skipped; an empty input yields an empty
// single-page document.
func BuildAttachmentGallery(paths []string, log *slog.Logger) ([]byte, error) {
	if log == nil {
		log = slog.Default()
	}

	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetBorder(false)

	// A4 portrait height is ~297mm; leave a small margin per page.
	imageHeight := 250.0

	usable := make([]string, 0, len(paths))
	for _, path := range paths {
		if path != "" {
			usable = append(usable, path)
		}
	}

	for i, path := range usable {
		m.Row(imageHeight, func() {
			m.Col(12, func() {
				if err := m.FileImage(path); err != nil {
					log.Warn("export.gallery.image_failed", "path", path, "error", err)
				}
			})
		})
		if i < len(usable)-1 {
			m.AddPage()
		}
	}

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to generate gallery output: %w", err)
	}
	return buf.Bytes(), nil
}
