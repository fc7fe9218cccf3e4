package model

// QRPosition places the verification QR into one of the footer slots.
type QRPosition int

const (
	QRBottomRight QRPosition = iota
	QRBottomLeft
	QRBottomCenter
)

// ParseQRPosition maps the stored label to a position, defaulting to the
// right slot for unknown input.
func ParseQRPosition(s string) QRPosition {
	switch s {
	case "bottom_left":
		return QRBottomLeft
	case "bottom_center":
		return QRBottomCenter
	default:
		return QRBottomRight
	}
}

const (
	QRSizeMin     = 30
	QRSizeMax     = 200
	QRSizeDefault = 80

	DefaultFontSize     = 10.0
	DefaultBrandingText = "Generated by Webitel Event Exporter"
	VerificationType    = "event_results"
)

// ExportOptions is the immutable per-call configuration of an export. The
// engine never writes into it; identifiers assigned during processing (the
// verification id, the resolved URL) travel back in ExportResult.
type ExportOptions struct {
	IncludeEventDetails bool `json:"include_event_details"`
	IncludeSurvey       bool `json:"include_survey"`
	IncludeDiscussions  bool `json:"include_discussions"`
	IncludeSignatures   bool `json:"include_signatures"`
	IncludeSections     bool `json:"include_sections"`
	IncludeAttachments  bool `json:"include_attachments"`

	HeaderBackground string  `json:"header_background"` // hex, e.g. "#2f5496"
	FontFamily       string  `json:"font_family"`       // overrides the resolved chain
	FontSize         float64 `json:"font_size"`
	TextColor        string  `json:"text_color"`

	BackgroundImage   []byte  `json:"background_image,omitempty"`
	BackgroundOpacity float64 `json:"background_opacity"` // [0,1]

	ShowQR     bool       `json:"show_qr"`
	QRSize     int        `json:"qr_size"` // points, clamped to [30,200]
	QRPosition QRPosition `json:"qr_position"`
	ShowQRURL  bool       `json:"show_qr_url"`

	// VerificationBaseURL empty means verification is not attempted at all.
	VerificationBaseURL string `json:"verification_base_url"`
	VerificationID      string `json:"verification_id"`
	VerificationType    string `json:"verification_type"`

	BrandingText string `json:"branding_text"`
	CustomTitle  string `json:"custom_title"`
	Logo         []byte `json:"logo,omitempty"`
}

// FontSizeOrDefault returns the base body font size.
func (o *ExportOptions) FontSizeOrDefault() float64 {
	if o.FontSize > 0 {
		return o.FontSize
	}
	return DefaultFontSize
}

func (o *ExportOptions) BrandingOrDefault() string {
	if o.BrandingText != "" {
		return o.BrandingText
	}
	return DefaultBrandingText
}

func (o *ExportOptions) VerificationTypeOrDefault() string {
	if o.VerificationType != "" {
		return o.VerificationType
	}
	return VerificationType
}

// ClampedQRSize keeps the QR edge inside the documented bounds.
func (o *ExportOptions) ClampedQRSize() int {
	size := o.QRSize
	if size == 0 {
		size = QRSizeDefault
	}
	if size < QRSizeMin {
		size = QRSizeMin
	}
	if size > QRSizeMax {
		size = QRSizeMax
	}
	return size
}
