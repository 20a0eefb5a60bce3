package leave

import (
	"bytes"
	"fmt"
	"time"

	"go-timeoff/internal/leavepolicy"

	"github.com/jung-kurt/gofpdf"
)

func renderSlip(l Leave) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Time Off Request "+l.RequestNumber)
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 12)
	rows := [][2]string{
		{"Employee", l.EmployeeID.String()},
		{"Leave type", string(l.LeaveType)},
		{"Period", fmt.Sprintf("%s to %s", l.StartDate.Format(leavepolicy.DateLayout), l.EndDate.Format(leavepolicy.DateLayout))},
		{"Days", fmt.Sprintf("%d", l.TotalDays)},
		{"Hours", fmt.Sprintf("%d", l.LeaveAmount)},
		{"Status", string(l.Status)},
		{"Submitted", l.CreatedAt.UTC().Format(time.RFC1123)},
	}
	if l.DecidedAt != nil {
		rows = append(rows, [2]string{"Decided", l.DecidedAt.UTC().Format(time.RFC1123)})
	}
	if l.RejectionReason != nil {
		rows = append(rows, [2]string{"Rejection reason", *l.RejectionReason})
	}
	for _, row := range rows {
		pdf.CellFormat(45, 8, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	if l.Reason != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Reason")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 6, l.Reason, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
