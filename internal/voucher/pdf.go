// Package voucher renders printable gift card vouchers.
package voucher

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/richxcame/giftcards/internal/giftcards"
	"github.com/richxcame/giftcards/pkg/i18n"
)

const (
	pageWidth  = 210.0
	pageHeight = 148.0
	margin     = 10.0
)

// Config holds voucher presentation settings
type Config struct {
	Author   string
	SiteName string
	Language string
}

// PDFRenderer draws an A5 landscape voucher
type PDFRenderer struct {
	cfg Config
	now func() time.Time
}

// NewPDFRenderer creates a PDF renderer
func NewPDFRenderer(cfg Config) *PDFRenderer {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &PDFRenderer{cfg: cfg, now: time.Now}
}

var _ giftcards.VoucherRenderer = (*PDFRenderer)(nil)

// Render returns the voucher of card as PDF bytes. The printed value is the
// card's face price, not its remaining balance.
func (r *PDFRenderer) Render(ctx context.Context, card *giftcards.GiftCard) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang := r.cfg.Language
	pdf := fpdf.New("L", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(i18n.Translate("giftcard.voucher.title", lang, card.Code), true)
	pdf.SetAuthor(r.cfg.Author, true)
	pdf.SetSubject(i18n.Translate("giftcard.voucher.subject", lang), true)
	pdf.SetKeywords(i18n.Translate("giftcard.voucher.keywords", lang), true)
	pdf.SetCreator(r.cfg.SiteName, true)
	pdf.SetCreationDate(r.now().UTC())

	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()

	// frame
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.8)
	pdf.Rect(margin, margin, pageWidth-2*margin, pageHeight-2*margin, "D")

	// site name along the left edge
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.TransformBegin()
	pdf.TransformRotate(90, margin+8, pageHeight-margin-6)
	pdf.Text(margin+8, pageHeight-margin-6, tr(r.cfg.SiteName))
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(margin, 32)
	pdf.SetFont("Helvetica", "B", 32)
	pdf.CellFormat(pageWidth-2*margin, 16, tr(i18n.Translate("giftcard.voucher.heading", lang)), "", 1, "C", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 40)
	pdf.CellFormat(pageWidth-2*margin, 20, tr(i18n.FormatAmount(card.Price(), card.Currency)), "", 1, "C", false, 0, "")

	if card.Name != "" {
		pdf.SetFont("Helvetica", "I", 14)
		pdf.CellFormat(pageWidth-2*margin, 10, tr(card.Name), "", 1, "C", false, 0, "")
	}

	pdf.SetXY(margin, pageHeight-margin-24)
	pdf.SetFont("Courier", "B", 18)
	pdf.CellFormat(pageWidth-2*margin, 10, tr(i18n.Translate("giftcard.voucher.code", lang, card.Code)), "", 1, "C", false, 0, "")

	if card.Note != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(pageWidth-2*margin, 6, tr(card.Note), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render voucher %s: %w", card.ID, err)
	}
	return buf.Bytes(), nil
}
