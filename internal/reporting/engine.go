package reporting

import (
	"fmt"
	"sort"
	"time"

	"zainmobiles/backend/internal/domain"
)

// PeriodStart returns the UTC lower bound for a reporting period. The zero
// time means unbounded (the "all" period). Weekly and monthly windows are
// inclusive of today, so a 7-day window starts 6 days ago at midnight.
func PeriodStart(period string, now time.Time) time.Time {
	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case domain.PeriodDaily:
		return today
	case domain.PeriodWeekly:
		return today.AddDate(0, 0, -6)
	case domain.PeriodMonthly:
		return today.AddDate(0, 0, -29)
	default:
		return time.Time{}
	}
}

func IsValidPeriod(period string) bool {
	switch period {
	case domain.PeriodDaily, domain.PeriodWeekly, domain.PeriodMonthly, domain.PeriodAll:
		return true
	}
	return false
}

// BuildSalesReport aggregates sale records into the per-product and per-day
// breakdowns. Callers pass records already filtered to the period.
func BuildSalesReport(period string, sales []domain.SaleRecord) domain.SalesReport {
	report := domain.SalesReport{
		Period:           period,
		ProductWiseSales: make([]domain.ProductSales, 0, 16),
		DailyBreakdown:   make([]domain.DailySales, 0, 31),
	}

	byProduct := map[string]*domain.ProductSales{}
	byDay := map[string]*domain.DailySales{}

	for _, sale := range sales {
		report.Summary.TotalRevenueCents += sale.AmountCents
		report.Summary.TotalOrders++
		report.Summary.TotalUnits += sale.Quantity

		product := byProduct[sale.ProductID]
		if product == nil {
			product = &domain.ProductSales{ProductID: sale.ProductID, ProductName: sale.ProductName}
			byProduct[sale.ProductID] = product
		}
		product.TotalQuantity += sale.Quantity
		product.TotalRevenueCents += sale.AmountCents
		product.TotalOrders++

		dayKey := sale.CreatedAt.UTC().Format("2006-01-02")
		day := byDay[dayKey]
		if day == nil {
			day = &domain.DailySales{Date: dayKey}
			byDay[dayKey] = day
		}
		day.RevenueCents += sale.AmountCents
		day.Orders++
	}

	for _, entry := range byProduct {
		report.ProductWiseSales = append(report.ProductWiseSales, *entry)
	}
	for _, entry := range byDay {
		report.DailyBreakdown = append(report.DailyBreakdown, *entry)
	}

	sort.Slice(report.ProductWiseSales, func(i, j int) bool {
		a, b := report.ProductWiseSales[i], report.ProductWiseSales[j]
		if a.TotalRevenueCents == b.TotalRevenueCents {
			return a.ProductName < b.ProductName
		}
		return a.TotalRevenueCents > b.TotalRevenueCents
	})
	// Most recent day first, matching the admin report table.
	sort.Slice(report.DailyBreakdown, func(i, j int) bool {
		return report.DailyBreakdown[i].Date > report.DailyBreakdown[j].Date
	})

	return report
}

// StockLabel renders the low-stock alert text shown in the admin panel.
func StockLabel(stock int) string {
	if stock <= 0 {
		return "Out of Stock"
	}
	return fmt.Sprintf("%d remaining", stock)
}

func LabelLowStock(products []domain.Product) []domain.LowStockProduct {
	labeled := make([]domain.LowStockProduct, 0, len(products))
	for _, p := range products {
		labeled = append(labeled, domain.LowStockProduct{Product: p, StockLabel: StockLabel(p.Stock)})
	}
	return labeled
}

// BuildDashboard assembles the admin dashboard payload from pre-fetched
// pieces. Unsettled amount is summed here rather than trusted from callers.
func BuildDashboard(
	totalProducts int,
	revenueCents int64,
	totalSold int,
	lowStock []domain.Product,
	unsettled []domain.StockLogEntry,
	recentSales []domain.SaleRecord,
) domain.DashboardStats {
	var unsettledAmount int64
	for _, entry := range unsettled {
		unsettledAmount += entry.AmountCents
	}
	// The headline count covers products running low but not yet out;
	// out-of-stock products still appear in the alert list below.
	lowCount := 0
	for _, p := range lowStock {
		if p.Stock > 0 {
			lowCount++
		}
	}
	if unsettled == nil {
		unsettled = []domain.StockLogEntry{}
	}
	if recentSales == nil {
		recentSales = []domain.SaleRecord{}
	}
	return domain.DashboardStats{
		TotalProducts:        totalProducts,
		TotalRevenueCents:    revenueCents,
		TotalSold:            totalSold,
		LowStockCount:        lowCount,
		UnsettledTransfers:   unsettled,
		UnsettledAmountCents: unsettledAmount,
		RecentSales:          recentSales,
		LowStockProducts:     LabelLowStock(lowStock),
	}
}
