package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"zainmobiles/backend/internal/domain"
)

// WriteSalesReportXLSX renders a sales report as an Excel workbook with a
// summary sheet, a per-product sheet and a per-day sheet. Money cells are
// written in major units (cents / 100).
func WriteSalesReportXLSX(w io.Writer, report domain.SalesReport) error {
	file := excelize.NewFile()
	defer file.Close()

	const summarySheet = "Summary"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	summaryRows := [][]any{
		{"Period", report.Period},
		{"Total Revenue", cents(report.Summary.TotalRevenueCents)},
		{"Total Orders", report.Summary.TotalOrders},
		{"Total Units", report.Summary.TotalUnits},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	productSheet := "By Product"
	if _, err := file.NewSheet(productSheet); err != nil {
		return fmt.Errorf("create product sheet: %w", err)
	}
	productHeader := []any{"Product", "Units Sold", "Orders", "Revenue"}
	if err := file.SetSheetRow(productSheet, "A1", &productHeader); err != nil {
		return err
	}
	for i, entry := range report.ProductWiseSales {
		row := []any{entry.ProductName, entry.TotalQuantity, entry.TotalOrders, cents(entry.TotalRevenueCents)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(productSheet, cell, &row); err != nil {
			return fmt.Errorf("write product row %d: %w", i+2, err)
		}
	}

	dailySheet := "By Day"
	if _, err := file.NewSheet(dailySheet); err != nil {
		return fmt.Errorf("create daily sheet: %w", err)
	}
	dailyHeader := []any{"Date", "Orders", "Revenue"}
	if err := file.SetSheetRow(dailySheet, "A1", &dailyHeader); err != nil {
		return err
	}
	for i, entry := range report.DailyBreakdown {
		row := []any{entry.Date, entry.Orders, cents(entry.RevenueCents)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(dailySheet, cell, &row); err != nil {
			return fmt.Errorf("write daily row %d: %w", i+2, err)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cents(amount int64) float64 {
	return float64(amount) / 100
}
