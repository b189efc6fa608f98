package leave

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"hrms/internal/domain/core"
)

// WriteStatement renders a one page PDF of the employee's balances for year.
func WriteStatement(w io.Writer, emp core.Employee, year int, balances []Entitlement, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Leave statement %d", year), false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave Balance Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", emp.FullName()))
	pdf.Ln(7)
	if emp.EmployeeNumber != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Employee number: %s", emp.EmployeeNumber))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Year: %d", year))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(12)

	headers := []string{"Leave type", "Entitlement", "Accrued", "Used", "Pending", "Available"}
	widths := []float64{40, 30, 30, 25, 25, 30}
	pdf.SetFont("Helvetica", "B", 11)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, ent := range balances {
		row := []string{
			string(ent.LeaveType),
			fmt.Sprintf("%.2f", ent.Entitlement),
			fmt.Sprintf("%.2f", ent.Accrued),
			fmt.Sprintf("%.2f", ent.Used),
			fmt.Sprintf("%.2f", ent.Pending),
			fmt.Sprintf("%.2f", ent.Available),
		}
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 8, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(balances) == 0 {
		pdf.Cell(0, 8, "No leave entitlements for this year.")
		pdf.Ln(7)
	}

	return pdf.Output(w)
}
