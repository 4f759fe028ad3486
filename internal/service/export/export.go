// Package export renders the buyer ledger as an xlsx workbook. Pure
// read-only transform; it never touches ticket state.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/granrifa/rifa-go/internal/domain"
)

const (
	SheetName = "Buyers"
	Filename  = "raffle_buyers.xlsx"
)

var headers = []string{"Ticket #", "Name", "Phone", "Purchased At"}

// matching the admin panel's on-screen layout
var columnWidths = []float64{12, 25, 18, 22}

// BuyersWorkbook builds the spreadsheet from buyers already ordered by ticket
// number and returns the encoded file.
func BuyersWorkbook(buyers []domain.BuyerWithStatus) (*bytes.Buffer, error) {
	const op = "export.BuyersWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), SheetName)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
	}

	for row, b := range buyers {
		values := []any{
			b.TicketNumber,
			b.Name,
			b.Phone,
			b.CreatedAt.Format(time.DateTime),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("%s:%w", op, err)
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("%s:%w", op, err)
			}
		}
	}

	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return buf, nil
}
