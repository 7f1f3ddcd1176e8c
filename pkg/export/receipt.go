package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt holds the fields rendered onto a fee receipt.
type Receipt struct {
	ReceiptNumber  string
	StudentName    string
	Registration   string
	FeeType        string
	Amount         float64
	LateFee        float64
	PaidAmount     float64
	PaymentMethod  string
	PaidAt         time.Time
}

// ReceiptRenderer renders fee receipts as PDF documents.
type ReceiptRenderer struct {
	institution string
}

// NewReceiptRenderer constructs a renderer with the institution name printed
// in the header.
func NewReceiptRenderer(institution string) *ReceiptRenderer {
	if institution == "" {
		institution = "Campus Records"
	}
	return &ReceiptRenderer{institution: institution}
}

// Render produces the receipt PDF bytes.
func (r *ReceiptRenderer) Render(receipt Receipt) ([]byte, error) {
	if receipt.ReceiptNumber == "" {
		return nil, fmt.Errorf("receipt number required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, r.institution, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Fee Payment Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Receipt No", receipt.ReceiptNumber},
		{"Student", receipt.StudentName},
		{"Registration No", receipt.Registration},
		{"Fee Type", receipt.FeeType},
		{"Amount", fmt.Sprintf("%.2f", receipt.Amount)},
		{"Late Fee", fmt.Sprintf("%.2f", receipt.LateFee)},
		{"Paid", fmt.Sprintf("%.2f", receipt.PaidAmount)},
		{"Payment Method", receipt.PaymentMethod},
		{"Paid At", receipt.PaidAt.Format("2006-01-02 15:04 MST")},
	}

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(120, 8, row[1], "1", 1, "", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "This is a system generated receipt.", "", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
