package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"opsdesk/internal/models"
)

// PORequestGenerator renders a purchase-order request into a PDF in memory.
type PORequestGenerator struct {
	companyName string
}

func NewPORequestGenerator(companyName string) *PORequestGenerator {
	if companyName == "" {
		companyName = "OpsDesk"
	}
	return &PORequestGenerator{companyName: companyName}
}

func (g *PORequestGenerator) Generate(po *models.PurchaseOrderRequest) (*bytes.Buffer, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(po.RequestNumber, false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, g.companyName)
	doc.Ln(12)

	doc.SetFont("Helvetica", "B", 13)
	doc.Cell(0, 8, fmt.Sprintf("Purchase Order Request %s", po.RequestNumber))
	doc.Ln(10)

	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, fmt.Sprintf("Vendor: %s", po.VendorName))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Requested by: %s on %s", po.RequestedByName, po.CreatedAt.Format("2006-01-02")))
	doc.Ln(6)
	if po.DueDate != nil {
		doc.Cell(0, 6, fmt.Sprintf("Due date: %s", po.DueDate.Format("2006-01-02")))
		doc.Ln(6)
	}
	doc.Cell(0, 6, fmt.Sprintf("Status: %s", po.Status))
	doc.Ln(10)

	// таблица позиций
	doc.SetFont("Helvetica", "B", 9)
	doc.CellFormat(80, 7, "Description", "1", 0, "L", false, 0, "")
	doc.CellFormat(20, 7, "Qty", "1", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, "Unit price", "1", 0, "R", false, 0, "")
	doc.CellFormat(25, 7, "Tax", "1", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, "Total", "1", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, item := range po.LineItems {
		doc.CellFormat(80, 7, item.Description, "1", 0, "L", false, 0, "")
		doc.CellFormat(20, 7, fmt.Sprintf("%g", item.Qty), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 7, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		doc.CellFormat(25, 7, fmt.Sprintf("%.2f", item.TaxAmount), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 7, fmt.Sprintf("%.2f", item.LineTotal), "1", 1, "R", false, 0, "")
	}

	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(155, 6, "Subtotal", "", 0, "R", false, 0, "")
	doc.CellFormat(30, 6, fmt.Sprintf("%.2f %s", po.Subtotal, po.Currency), "", 1, "R", false, 0, "")
	doc.CellFormat(155, 6, "Tax", "", 0, "R", false, 0, "")
	doc.CellFormat(30, 6, fmt.Sprintf("%.2f %s", po.TaxAmount, po.Currency), "", 1, "R", false, 0, "")
	doc.CellFormat(155, 6, "Total", "", 0, "R", false, 0, "")
	doc.CellFormat(30, 6, fmt.Sprintf("%.2f %s", po.Total, po.Currency), "", 1, "R", false, 0, "")

	if po.Notes != "" {
		doc.Ln(6)
		doc.SetFont("Helvetica", "I", 9)
		doc.MultiCell(0, 5, "Notes: "+po.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PO request pdf: %w", err)
	}
	return &buf, nil
}
