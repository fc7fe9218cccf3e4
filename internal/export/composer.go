package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/webitel/event-exporter/internal/errors"
	"github.com/webitel/event-exporter/internal/model"
)

// Page geometry, A4 portrait in millimeters.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginTop    = 15.0
	marginRight  = 15.0
	footerHeight = 22.0
	logoHeight   = 14.0
	lineHeight   = 5.0

	// Cover size the background image is normalized to upstream (A4 at
	// 150 dpi).
	BackgroundCoverWidth  = 1240
	BackgroundCoverHeight = 1754
)

const contentWidth = pageWidth - marginLeft - marginRight

// RenderedReport is the composed participants report: the serialized bytes
// plus the page count the merge engine relies on.
type RenderedReport struct {
	Data  []byte
	Pages int
}

type Composer struct {
	resolver *Resolver
	fonts    FontSelection
	log      *slog.Logger
}

func NewComposer(resolver *Resolver, fonts FontSelection, log *slog.Logger) *Composer {
	if log == nil {
		log = slog.Default()
	}
	return &Composer{resolver: resolver, fonts: fonts, log: log}
}

// Compose lays out the full report as one flowing document: header with
// logo and title, the conditional content blocks in their fixed order, and
// a footer with branding, verification QR and page numbers on every page.
// Pagination is driven purely by content volume. Any panic out of the
// rendering layer is converted into an error; the caller decides whether to
// substitute the fallback stub.
func (c *Composer) Compose(data *model.AggregatedEventData, opts *model.ExportOptions, artifact *VerificationArtifact) (report *RenderedReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Sprintf("compose: %v", r), errors.WithID("export.compose.panic"))
		}
	}()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, footerHeight+6)
	pdf.AliasNbPages("")

	d := &reportDoc{
		pdf:      pdf,
		opts:     opts,
		data:     data,
		artifact: artifact,
		log:      c.log,
		resolver: c.resolver,
	}
	d.family = RegisterFonts(pdf, c.fonts)
	if c.fonts.Embedded() {
		d.tr = func(s string) string { return s }
	} else {
		d.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	d.applyFontOverride()
	d.registerImages()

	pdf.SetHeaderFunc(d.header)
	pdf.SetFooterFunc(d.footer)
	pdf.AddPage()
	d.body()

	if pdf.Err() {
		return nil, errors.Internal(pdf.Error().Error(), errors.WithID("export.compose.render"))
	}

	pages := pdf.PageCount()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Internal(err.Error(), errors.WithID("export.compose.output"))
	}
	return &RenderedReport{Data: buf.Bytes(), Pages: pages}, nil
}

type reportDoc struct {
	pdf      *gofpdf.Fpdf
	tr       func(string) string
	family   string
	opts     *model.ExportOptions
	data     *model.AggregatedEventData
	artifact *VerificationArtifact
	log      *slog.Logger
	resolver *Resolver

	bgName   string
	logoName string
	qrName   string
	sigNames map[int64]string
}

var coreFamilies = map[string]bool{
	"helvetica": true,
	"arial":     true,
	"times":     true,
	"courier":   true,
}

// applyFontOverride honors the styling override only for the built-in core
// families; an arbitrary family name cannot be registered without a font
// file and is ignored with a warning.
func (d *reportDoc) applyFontOverride() {
	override := strings.ToLower(d.opts.FontFamily)
	if override == "" || override == strings.ToLower(d.family) {
		return
	}
	if coreFamilies[override] {
		d.family = d.opts.FontFamily
		d.tr = d.pdf.UnicodeTranslatorFromDescriptor("")
		return
	}
	d.log.Warn("export.compose.font_override_ignored", "family", d.opts.FontFamily)
}

// registerImages validates and registers every raster used across pages.
// Broken images are skipped, never fatal.
func (d *reportDoc) registerImages() {
	if len(d.opts.BackgroundImage) > 0 {
		d.bgName = d.register("report_bg", d.opts.BackgroundImage)
	}
	if len(d.opts.Logo) > 0 {
		d.logoName = d.register("report_logo", d.opts.Logo)
	}
	if d.artifact != nil && d.opts.ShowQR {
		d.qrName = d.register("report_qr", d.artifact.QR)
	}
	d.sigNames = make(map[int64]string)
	for id, sig := range d.data.Signatures {
		if len(sig.Image) == 0 {
			continue
		}
		if name := d.register(fmt.Sprintf("sig_%d", id), sig.Image); name != "" {
			d.sigNames[id] = name
		}
	}
}

// register re-encodes the raster as PNG first so gofpdf never sees a format
// it cannot parse, then registers it under name. Returns "" when the image
// is unusable.
func (d *reportDoc) register(name string, raw []byte) string {
	png, ok := reencodePNG(raw)
	if !ok {
		d.log.Warn("export.compose.image_skipped", "name", name)
		return ""
	}
	d.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	return name
}

func (d *reportDoc) header() {
	pdf := d.pdf

	if d.bgName != "" {
		pdf.ImageOptions(d.bgName, 0, 0, pageWidth, pageHeight, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	r, g, b := parseHexColor(d.opts.HeaderBackground, 255, 255, 255)
	if d.opts.HeaderBackground != "" {
		pdf.SetFillColor(r, g, b)
		pdf.Rect(0, 0, pageWidth, marginTop+logoHeight+4, "F")
	}

	x := marginLeft
	if d.logoName != "" {
		pdf.ImageOptions(d.logoName, marginLeft, marginTop-4, 0, logoHeight, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		x += 40
	}

	title := d.opts.CustomTitle
	if title == "" {
		title = d.data.Event.Title
	}
	d.setTextColor()
	pdf.SetFont(d.family, "B", 15)
	pdf.SetXY(x, marginTop-4)
	pdf.CellFormat(pageWidth-marginRight-x, logoHeight, d.tr(title), "", 0, "RM", false, 0, "")

	y := marginTop + logoHeight
	if d.opts.IncludeEventDetails {
		pdf.SetFont(d.family, "", 9)
		pdf.SetXY(marginLeft, y-2)
		pdf.CellFormat(contentWidth, 5, d.tr(d.eventDetailsLine()), "", 0, "R", false, 0, "")
		y += 4
	}

	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(marginLeft, y+2, pageWidth-marginRight, y+2)
	pdf.SetY(y + 6)
}

func (d *reportDoc) eventDetailsLine() string {
	var parts []string
	ev := d.data.Event
	if ev.StartsAt != nil {
		dates := ev.StartsAt.Format("02.01.2006")
		if ev.EndsAt != nil && !ev.EndsAt.Equal(*ev.StartsAt) {
			dates += " - " + ev.EndsAt.Format("02.01.2006")
		}
		parts = append(parts, dates)
	}
	if ev.Organization != "" {
		parts = append(parts, ev.Organization)
	}
	return strings.Join(parts, ", ")
}

// footer renders the three bottom slots: the QR in its configured slot, the
// branding text (and verification URL) always in the center, and the page
// marker in the remaining outer slot.
func (d *reportDoc) footer() {
	pdf := d.pdf
	pdf.SetY(-footerHeight)
	y := pageHeight - footerHeight

	qrSlot := model.QRPosition(-1)
	if d.qrName != "" {
		qrSlot = d.opts.QRPosition
		size := qrPointsToMM(d.opts.ClampedQRSize())
		var x float64
		switch qrSlot {
		case model.QRBottomLeft:
			x = marginLeft
		case model.QRBottomCenter:
			x = (pageWidth - size) / 2
		default:
			x = pageWidth - marginRight - size
		}
		pdf.ImageOptions(d.qrName, x, pageHeight-size-4, size, size, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	d.setTextColor()
	pdf.SetFont(d.family, "", 8)
	slotWidth := contentWidth / 3

	// center slot
	pdf.SetXY(marginLeft+slotWidth, y+6)
	pdf.CellFormat(slotWidth, 4, d.tr(d.opts.BrandingOrDefault()), "", 2, "C", false, 0, "")
	if d.opts.ShowQRURL && d.artifact != nil {
		pdf.SetFont(d.family, "", 6)
		pdf.CellFormat(slotWidth, 3, d.artifact.URL, "", 0, "C", false, 0, "")
		pdf.SetFont(d.family, "", 8)
	}

	pageMarker := fmt.Sprintf("%d / {nb}", pdf.PageNo())
	if qrSlot == model.QRBottomRight {
		pdf.SetXY(marginLeft, y+6)
		pdf.CellFormat(slotWidth, 4, pageMarker, "", 0, "L", false, 0, "")
	} else {
		pdf.SetXY(pageWidth-marginRight-slotWidth, y+6)
		pdf.CellFormat(slotWidth, 4, pageMarker, "", 0, "R", false, 0, "")
	}
}

// body renders the conditional content blocks in their fixed order. A block
// with no backing data is omitted entirely.
func (d *reportDoc) body() {
	if d.opts.IncludeSections {
		for i := range d.data.Sections {
			d.section(&d.data.Sections[i])
		}
		for i := range d.data.Tables {
			d.tableBlock(&d.data.Tables[i])
		}
	}
	if d.opts.IncludeSurvey && len(d.data.Answers) > 0 {
		d.surveyAnswers()
	}
	if d.opts.IncludeDiscussions && len(d.data.Replies) > 0 {
		d.discussionReplies()
	}
	if len(d.data.Participants) > 0 {
		d.participantsSummary()
	}
}

func (d *reportDoc) section(s *model.Section) {
	if s.Title == "" && s.Body == "" && len(s.Tables) == 0 && len(s.Attachments) == 0 {
		return
	}
	if s.Title != "" {
		d.blockTitle(s.Title)
	}
	if s.Body != "" {
		d.setTextColor()
		d.pdf.SetFont(d.family, "", d.opts.FontSizeOrDefault())
		d.pdf.MultiCell(contentWidth, lineHeight, d.tr(s.Body), "", "L", false)
		d.pdf.Ln(2)
	}
	for i := range s.Tables {
		d.tableBlock(&s.Tables[i])
	}
	if d.opts.IncludeAttachments && len(s.Attachments) > 0 {
		d.imageGrid(s.Attachments)
	}
}

func (d *reportDoc) blockTitle(title string) {
	d.setTextColor()
	d.pdf.SetFont(d.family, "B", d.opts.FontSizeOrDefault()+2)
	d.pdf.MultiCell(contentWidth, lineHeight+2, d.tr(title), "", "L", false)
	d.pdf.Ln(1)
}

// tableBlock renders one stored grid. A malformed payload renders nothing.
func (d *reportDoc) tableBlock(b *model.TableBlock) {
	grid, ok := ParseTableGrid(b.Payload)
	if !ok {
		return
	}
	if b.Title != "" {
		d.blockTitle(b.Title)
	}

	cols := len(grid[0])
	widths := make([]float64, cols)
	for i := range widths {
		widths[i] = contentWidth / float64(cols)
	}

	for i, row := range grid {
		header := b.HeaderRow && i == 0
		d.gridRow(widths, row, header)
	}
	d.pdf.Ln(3)
}

func (d *reportDoc) surveyAnswers() {
	d.blockTitle("Survey answers")
	widths := []float64{50, 65, 65}
	d.gridRow(widths, []string{"Participant", "Question", "Answer"}, true)
	for _, a := range d.data.Answers {
		d.gridRow(widths, []string{a.ParticipantName, a.Question, strings.Join(a.Options, ", ")}, false)
	}
	d.pdf.Ln(3)
}

func (d *reportDoc) discussionReplies() {
	d.blockTitle("Discussion replies")
	widths := []float64{50, 55, 75}
	d.gridRow(widths, []string{"Participant", "Topic", "Reply"}, true)
	for _, r := range d.data.Replies {
		d.gridRow(widths, []string{r.ParticipantName, r.Topic, r.Body}, false)
	}
	d.pdf.Ln(3)
}

// gridRow draws one bordered row, sized to the tallest wrapped cell, with a
// manual page break so a row never straddles the footer.
func (d *reportDoc) gridRow(widths []float64, cells []string, header bool) {
	pdf := d.pdf
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(d.family, style, d.opts.FontSizeOrDefault()-1)
	d.setTextColor()

	lines := 1
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		n := len(pdf.SplitText(d.tr(cell), widths[i]-2))
		if n > lines {
			lines = n
		}
	}
	rowH := float64(lines)*lineHeight + 2

	if pdf.GetY()+rowH > pageHeight-footerHeight-6 {
		pdf.AddPage()
	}

	x := marginLeft
	y := pdf.GetY()
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		if header {
			pdf.SetFillColor(230, 230, 230)
			pdf.Rect(x, y, widths[i], rowH, "FD")
		} else {
			pdf.Rect(x, y, widths[i], rowH, "D")
		}
		pdf.SetXY(x+1, y+1)
		pdf.MultiCell(widths[i]-2, lineHeight, d.tr(cell), "", "L", false)
		x += widths[i]
	}
	pdf.SetXY(marginLeft, y+rowH)
}

// imageGrid lays attachments out three per row.
func (d *reportDoc) imageGrid(attachments []model.Attachment) {
	pdf := d.pdf
	cellW := contentWidth / 3
	cellH := 35.0
	col := 0

	for _, att := range attachments {
		if att.Kind != model.AttachmentImage {
			continue
		}
		raw, ok := d.resolver.Resolve(att.Path)
		if !ok {
			d.log.Warn("export.compose.attachment_missing", "path", att.Path)
			continue
		}
		name := d.register(fmt.Sprintf("att_%d", att.ID), raw)
		if name == "" {
			continue
		}

		if col == 0 && pdf.GetY()+cellH > pageHeight-footerHeight-6 {
			pdf.AddPage()
		}
		x := marginLeft + float64(col)*cellW
		pdf.ImageOptions(name, x+1, pdf.GetY()+1, 0, cellH-2, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		col++
		if col == 3 {
			col = 0
			pdf.SetY(pdf.GetY() + cellH)
		}
	}
	if col != 0 {
		pdf.SetY(pdf.GetY() + cellH)
	}
	pdf.Ln(2)
}

// participantsSummary is the closing table: signature or placeholder, role,
// name and the 1-based ordinal, ordered by participant sequence.
func (d *reportDoc) participantsSummary() {
	pdf := d.pdf
	d.blockTitle("Participants")

	widths := []float64{45, 40, 75, 20}
	d.gridRow(widths, []string{"Signature", "Role", "Participant", "#"}, true)

	rowH := 16.0
	for _, p := range d.data.Participants {
		if pdf.GetY()+rowH > pageHeight-footerHeight-6 {
			pdf.AddPage()
		}
		x := marginLeft
		y := pdf.GetY()

		for _, w := range widths {
			pdf.Rect(x, y, w, rowH, "D")
			x += w
		}

		// Only names that actually registered; undecodable signature bytes
		// fall through to the placeholder.
		sigName := ""
		if d.opts.IncludeSignatures {
			sigName = d.sigNames[p.IdentityID]
		}
		if sigName != "" {
			pdf.ImageOptions(sigName, marginLeft+2, y+2, 0, rowH-4, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		} else {
			pdf.SetFont(d.family, "", d.opts.FontSizeOrDefault()-1)
			pdf.SetXY(marginLeft, y)
			pdf.CellFormat(widths[0], rowH, "-", "", 0, "CM", false, 0, "")
		}

		pdf.SetFont(d.family, "", d.opts.FontSizeOrDefault()-1)
		d.setTextColor()
		pdf.SetXY(marginLeft+widths[0]+1, y)
		pdf.CellFormat(widths[1]-2, rowH, d.tr(p.Role), "", 0, "LM", false, 0, "")
		pdf.SetXY(marginLeft+widths[0]+widths[1]+1, y)
		pdf.CellFormat(widths[2]-2, rowH, d.tr(p.Name), "", 0, "LM", false, 0, "")
		pdf.SetXY(marginLeft+widths[0]+widths[1]+widths[2], y)
		pdf.CellFormat(widths[3], rowH, strconv.Itoa(p.Ordinal), "", 0, "CM", false, 0, "")

		pdf.SetXY(marginLeft, y+rowH)
	}
}

func (d *reportDoc) setTextColor() {
	r, g, b := parseHexColor(d.opts.TextColor, 0, 0, 0)
	d.pdf.SetTextColor(r, g, b)
}

// parseHexColor accepts "#rrggbb" or "rrggbb"; anything else yields the
// provided default.
func parseHexColor(s string, dr, dg, db int) (int, int, int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return dr, dg, db
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return dr, dg, db
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}

// qrPointsToMM converts the configured QR edge from points to millimeters.
func qrPointsToMM(points int) float64 {
	return float64(points) * 25.4 / 72.0
}
