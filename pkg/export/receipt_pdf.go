package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt carries the fields printed on a donation receipt.
type Receipt struct {
	DonationID    string
	CampaignTitle string
	DonorName     string
	AmountCents   int64
	Currency      string
	PaymentRef    string
	DonatedAt     time.Time
	IssuerName    string
}

// ReceiptRenderer renders donation receipts as PDF documents.
type ReceiptRenderer struct{}

// NewReceiptRenderer constructs a receipt renderer.
func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{}
}

// Render produces the PDF bytes for a single receipt.
func (r *ReceiptRenderer) Render(receipt Receipt) ([]byte, error) {
	if receipt.DonationID == "" {
		return nil, fmt.Errorf("receipt requires a donation id")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	issuer := receipt.IssuerName
	if issuer == "" {
		issuer = "Impulso"
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, strings.ToUpper(issuer), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Comprobante de donación", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	rows := [][2]string{
		{"Comprobante", receipt.DonationID},
		{"Campaña", receipt.CampaignTitle},
		{"Donante", donorOrAnonymous(receipt.DonorName)},
		{"Monto", formatAmount(receipt.AmountCents, receipt.Currency)},
		{"Referencia de pago", receipt.PaymentRef},
		{"Fecha", receipt.DonatedAt.Format("02/01/2006 15:04 MST")},
	}

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(55, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(125, 8, row[1], "1", 1, "", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, "Este comprobante certifica la donación registrada. El procesamiento del pago es realizado por un proveedor externo.", "", "L", false)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func donorOrAnonymous(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Anónimo"
	}
	return name
}

func formatAmount(cents int64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s %.2f", strings.ToUpper(currency), float64(cents)/100)
}
