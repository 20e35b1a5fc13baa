package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	billing "meterdesk/internal/billing/domain"
)

const dateLayout = "2006-01-02"

// BuildInvoicePDF renders a minimal PDF for an invoice.
func BuildInvoicePDF(invoice *billing.Invoice, cfg ExportConfig) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, cfg.CompanyName)
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	if cfg.CompanyAddress != "" {
		pdf.Cell(0, 6, cfg.CompanyAddress)
		pdf.Ln(5)
	}
	if cfg.CompanyTaxID != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Tax ID: %s", cfg.CompanyTaxID))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice %s", invoice.InvoiceNumber))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Room: %s", invoice.RoomNumber))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tenant: %s", invoice.TenantName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Issue date: %s", invoice.IssueDate.Format(dateLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Due date: %s", invoice.DueDate.Format(dateLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", invoice.Status))
	pdf.Ln(5)
	if invoice.PaidDate != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Paid: %s", invoice.PaidDate.Format(dateLayout)))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Charges table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Consumption", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Rate", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	pdf.CellFormat(50, 6, "Water", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", invoice.WaterConsumption), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", invoice.WaterRatePerUnit), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", invoice.WaterAmount), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.CellFormat(50, 6, "Electricity", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", invoice.ElectricConsumption), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", invoice.ElectricRatePerUnit), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", invoice.ElectricAmount), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Subtotal: %.2f %s", invoice.Subtotal, invoice.Currency))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tax: %.2f %s", invoice.Tax, invoice.Currency))
	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Total: %.2f %s", invoice.Total, invoice.Currency))
	pdf.Ln(10)

	if len(invoice.Readings) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, "Meter", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, "Previous", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, "Current", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Usage", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, snapshot := range invoice.Readings {
			pdf.CellFormat(40, 6, snapshot.Meter, "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, fmt.Sprintf("%.2f", snapshot.PreviousReading), "1", 0, "R", false, 0, "")
			pdf.CellFormat(45, 6, fmt.Sprintf("%.2f", snapshot.CurrentReading), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", snapshot.Consumption), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	if cfg.FooterNote != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.Cell(0, 6, cfg.FooterNote)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInvoiceXLSX renders a minimal XLSX for an invoice.
func BuildInvoiceXLSX(invoice *billing.Invoice, cfg ExportConfig) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "invoice"
	readingsSheet := "readings"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(readingsSheet)

	_ = f.SetCellValue(summarySheet, "A1", cfg.CompanyName)
	_ = f.SetCellValue(summarySheet, "A3", "Invoice")
	_ = f.SetCellValue(summarySheet, "B3", invoice.InvoiceNumber)
	_ = f.SetCellValue(summarySheet, "A4", "Room")
	_ = f.SetCellValue(summarySheet, "B4", invoice.RoomNumber)
	_ = f.SetCellValue(summarySheet, "A5", "Tenant")
	_ = f.SetCellValue(summarySheet, "B5", invoice.TenantName)
	_ = f.SetCellValue(summarySheet, "A6", "Issue date")
	_ = f.SetCellValue(summarySheet, "B6", invoice.IssueDate.Format(dateLayout))
	_ = f.SetCellValue(summarySheet, "A7", "Due date")
	_ = f.SetCellValue(summarySheet, "B7", invoice.DueDate.Format(dateLayout))
	_ = f.SetCellValue(summarySheet, "A8", "Status")
	_ = f.SetCellValue(summarySheet, "B8", string(invoice.Status))
	_ = f.SetCellValue(summarySheet, "A9", "Water amount")
	_ = f.SetCellValue(summarySheet, "B9", invoice.WaterAmount)
	_ = f.SetCellValue(summarySheet, "A10", "Electric amount")
	_ = f.SetCellValue(summarySheet, "B10", invoice.ElectricAmount)
	_ = f.SetCellValue(summarySheet, "A11", "Subtotal")
	_ = f.SetCellValue(summarySheet, "B11", invoice.Subtotal)
	_ = f.SetCellValue(summarySheet, "A12", "Tax")
	_ = f.SetCellValue(summarySheet, "B12", invoice.Tax)
	_ = f.SetCellValue(summarySheet, "A13", "Total")
	_ = f.SetCellValue(summarySheet, "B13", invoice.Total)
	_ = f.SetCellValue(summarySheet, "A14", "Currency")
	_ = f.SetCellValue(summarySheet, "B14", invoice.Currency)

	_ = f.SetCellValue(readingsSheet, "A1", "Meter")
	_ = f.SetCellValue(readingsSheet, "B1", "Previous")
	_ = f.SetCellValue(readingsSheet, "C1", "Current")
	_ = f.SetCellValue(readingsSheet, "D1", "Usage")
	for i, snapshot := range invoice.Readings {
		row := i + 2
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("A%d", row), snapshot.Meter)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("B%d", row), snapshot.PreviousReading)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("C%d", row), snapshot.CurrentReading)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("D%d", row), snapshot.Consumption)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
