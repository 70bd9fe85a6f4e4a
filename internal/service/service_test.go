package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"zainmobiles/backend/internal/domain"
	"zainmobiles/backend/internal/store"
	"zainmobiles/backend/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.New(), nil, nil, 5, 8, 5*time.Second)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{
		ID:    "user-admin",
		Name:  "Shop Admin",
		Email: "admin@zainmobiles.com",
		Role:  domain.RoleAdmin,
	})
}

func customerCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{
		ID:    "user-cust",
		Name:  "Demo Customer",
		Email: "customer@zainmobiles.com",
		Role:  domain.RoleCustomer,
	})
}

func mustCreateProduct(t *testing.T, svc *Service, name string, priceCents int64, stock int) domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		Name:         name,
		Brand:        "TestBrand",
		Category:     "Smartphones",
		PriceCents:   priceCents,
		InitialStock: stock,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return product
}

func TestCreateProductRecordsInitialStockInLedger(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Galaxy S24", 100000, 10)

	if product.Stock != 10 {
		t.Fatalf("stock = %d, want 10", product.Stock)
	}

	logs, err := svc.ListStockLogs(adminCtx(), domain.StockLogFilter{})
	if err != nil {
		t.Fatalf("list stock logs: %v", err)
	}
	if logs.Total != 1 {
		t.Fatalf("ledger entries = %d, want 1", logs.Total)
	}
	entry := logs.Logs[0]
	if entry.Type != domain.StockTypeAdded || entry.Quantity != 10 || !entry.Settled {
		t.Fatalf("initial entry = %+v", entry)
	}
	if entry.AmountCents != 1000000 {
		t.Fatalf("snapshot amount = %d, want qty*price", entry.AmountCents)
	}
}

func TestAddStockIncrementsAndAppends(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Pixel 8a", 50000, 5)

	entry, err := svc.AddStock(adminCtx(), domain.StockAddRequest{
		ProductID: product.ID,
		Quantity:  7,
		Reference: "PO-1001",
	})
	if err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if !entry.Settled {
		t.Fatal("added entry must be settled")
	}
	if entry.ProductName != "Pixel 8a" {
		t.Fatalf("product name snapshot = %q", entry.ProductName)
	}

	got, err := svc.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 12 {
		t.Fatalf("stock = %d, want 12", got.Stock)
	}
}

func TestOversellLeavesStateUntouched(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Redmi Note 13", 20000, 3)

	_, err := svc.RecordStockSold(adminCtx(), domain.StockSoldRequest{
		ProductID: product.ID,
		Quantity:  4,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	got, err := svc.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 3 {
		t.Fatalf("stock changed to %d after failed sell", got.Stock)
	}

	logs, err := svc.ListStockLogs(adminCtx(), domain.StockLogFilter{Type: domain.StockTypeSold})
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if logs.Total != 0 {
		t.Fatalf("ledger gained %d sold entries from a failed sell", logs.Total)
	}
}

func TestTransferRequiresPersonAndStartsUnsettled(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Galaxy Tab S9", 75000, 10)

	_, err := svc.TransferStock(adminCtx(), domain.StockTransferRequest{
		ProductID: product.ID,
		Quantity:  2,
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without person, got %v", err)
	}

	entry, err := svc.TransferStock(adminCtx(), domain.StockTransferRequest{
		ProductID: product.ID,
		Quantity:  2,
		Person:    "City Mobile Traders",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if entry.Settled {
		t.Fatal("transfer entry must start unsettled")
	}
	if entry.AmountCents != 150000 {
		t.Fatalf("snapshot amount = %d", entry.AmountCents)
	}

	got, _ := svc.GetProduct(context.Background(), product.ID)
	if got.Stock != 8 {
		t.Fatalf("stock = %d, want 8", got.Stock)
	}
}

func TestSettleTransferIsIdempotent(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "iPad 10th Gen", 45000, 6)

	entry, err := svc.TransferStock(adminCtx(), domain.StockTransferRequest{
		ProductID: product.ID,
		Quantity:  1,
		Person:    "Dealer North",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	first, err := svc.SettleTransfer(adminCtx(), entry.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !first.Settled {
		t.Fatal("entry not settled")
	}

	second, err := svc.SettleTransfer(adminCtx(), entry.ID)
	if err != nil {
		t.Fatalf("repeat settle must succeed, got %v", err)
	}
	if !second.Settled {
		t.Fatal("entry flipped back to unsettled")
	}

	stats, err := svc.StockStats(adminCtx())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.UnsettledAmountCents != 0 {
		t.Fatalf("unsettled amount = %d after settle", stats.UnsettledAmountCents)
	}
}

func TestSaleCreateAndDeleteRoundTrip(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Watch Series 9", 42000, 5)

	sale, err := svc.CreateSale(adminCtx(), domain.SaleCreateRequest{
		ProductID:     product.ID,
		Quantity:      2,
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.Customer != domain.DefaultCustomer {
		t.Fatalf("customer = %q, want default", sale.Customer)
	}
	if sale.AmountCents != 84000 {
		t.Fatalf("amount = %d", sale.AmountCents)
	}

	got, _ := svc.GetProduct(context.Background(), product.ID)
	if got.Stock != 3 {
		t.Fatalf("stock = %d after sale, want 3", got.Stock)
	}

	if _, err := svc.DeleteSale(adminCtx(), sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	got, _ = svc.GetProduct(context.Background(), product.ID)
	if got.Stock != 5 {
		t.Fatalf("stock = %d after delete, want restored 5", got.Stock)
	}

	if _, err := svc.GetSale(adminCtx(), sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected sale gone, got %v", err)
	}
}

func TestSaleAmountUsesPriceAtSaleTime(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Galaxy Buds2 Pro", 18000, 10)

	sale, err := svc.CreateSale(adminCtx(), domain.SaleCreateRequest{
		ProductID:     product.ID,
		Quantity:      1,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	newPrice := int64(25000)
	if _, err := svc.UpdateProduct(adminCtx(), product.ID, domain.ProductUpdateRequest{
		PriceCents: &newPrice,
	}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	kept, err := svc.GetSale(adminCtx(), sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if kept.AmountCents != 18000 {
		t.Fatalf("sale amount drifted to %d after price change", kept.AmountCents)
	}
}

func TestInvalidPaymentMethodRejected(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Clear Case", 4900, 10)

	_, err := svc.CreateSale(adminCtx(), domain.SaleCreateRequest{
		ProductID:     product.ID,
		Quantity:      1,
		PaymentMethod: "barter",
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLowStockBoundary(t *testing.T) {
	svc := newTestService()
	mustCreateProduct(t, svc, "At Threshold", 10000, 5)
	mustCreateProduct(t, svc, "Above Threshold", 10000, 6)
	outProduct := mustCreateProduct(t, svc, "Sold Out", 10000, 1)

	if _, err := svc.RecordStockSold(adminCtx(), domain.StockSoldRequest{
		ProductID: outProduct.ID,
		Quantity:  1,
	}); err != nil {
		t.Fatalf("sell out: %v", err)
	}

	lowStock, err := svc.ListLowStockProducts(adminCtx())
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(lowStock) != 2 {
		t.Fatalf("low stock count = %d, want 2 (<= 5 only)", len(lowStock))
	}
	if lowStock[0].Name != "Sold Out" || lowStock[0].StockLabel != "Out of Stock" {
		t.Fatalf("first alert = %+v", lowStock[0])
	}
	if lowStock[1].StockLabel != "5 remaining" {
		t.Fatalf("threshold label = %q", lowStock[1].StockLabel)
	}
}

func TestAdminGates(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Gate Test Phone", 10000, 5)

	for name, call := range map[string]func() error{
		"create product": func() error {
			_, err := svc.CreateProduct(customerCtx(), domain.ProductCreateRequest{
				Name: "X", Brand: "Y", Category: "Smartphones", PriceCents: 100,
			})
			return err
		},
		"delete product": func() error {
			return svc.DeleteProduct(customerCtx(), product.ID)
		},
		"add stock": func() error {
			_, err := svc.AddStock(customerCtx(), domain.StockAddRequest{ProductID: product.ID, Quantity: 1})
			return err
		},
		"create sale": func() error {
			_, err := svc.CreateSale(customerCtx(), domain.SaleCreateRequest{ProductID: product.ID, Quantity: 1, PaymentMethod: "cash"})
			return err
		},
		"dashboard": func() error {
			_, err := svc.Dashboard(customerCtx())
			return err
		},
		"sales report": func() error {
			_, err := svc.SalesReport(context.Background(), domain.PeriodAll)
			return err
		},
	} {
		if err := call(); err == nil {
			t.Fatalf("%s: expected role gate to reject non-admin", name)
		}
	}
}

func TestSalesReportAggregatesByProduct(t *testing.T) {
	svc := newTestService()
	phone := mustCreateProduct(t, svc, "Report Phone", 100000, 20)
	buds := mustCreateProduct(t, svc, "Report Buds", 20000, 20)

	for _, sale := range []domain.SaleCreateRequest{
		{ProductID: phone.ID, Quantity: 2, PaymentMethod: "cash"},
		{ProductID: phone.ID, Quantity: 1, PaymentMethod: "card"},
		{ProductID: buds.ID, Quantity: 3, PaymentMethod: "online"},
	} {
		if _, err := svc.CreateSale(adminCtx(), sale); err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}

	report, err := svc.SalesReport(adminCtx(), domain.PeriodDaily)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Summary.TotalOrders != 3 || report.Summary.TotalUnits != 6 {
		t.Fatalf("summary = %+v", report.Summary)
	}
	if report.Summary.TotalRevenueCents != 360000 {
		t.Fatalf("revenue = %d", report.Summary.TotalRevenueCents)
	}
	if len(report.ProductWiseSales) != 2 || report.ProductWiseSales[0].ProductID != phone.ID {
		t.Fatalf("product grouping = %+v", report.ProductWiseSales)
	}
	if len(report.DailyBreakdown) != 1 {
		t.Fatalf("daily buckets = %d", len(report.DailyBreakdown))
	}

	_, err = svc.SalesReport(adminCtx(), "fortnightly")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid period rejection, got %v", err)
	}
}

func TestDashboardReflectsLedgerState(t *testing.T) {
	svc := newTestService()
	phone := mustCreateProduct(t, svc, "Dash Phone", 100000, 10)
	mustCreateProduct(t, svc, "Dash Case", 5000, 2)

	if _, err := svc.TransferStock(adminCtx(), domain.StockTransferRequest{
		ProductID: phone.ID,
		Quantity:  2,
		Person:    "Dealer East",
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := svc.CreateSale(adminCtx(), domain.SaleCreateRequest{
		ProductID:     phone.ID,
		Quantity:      3,
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	stats, err := svc.Dashboard(adminCtx())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.TotalProducts != 2 {
		t.Fatalf("total products = %d", stats.TotalProducts)
	}
	if stats.TotalRevenueCents != 300000 || stats.TotalSold != 3 {
		t.Fatalf("revenue/sold = %d/%d", stats.TotalRevenueCents, stats.TotalSold)
	}
	if len(stats.UnsettledTransfers) != 1 || stats.UnsettledAmountCents != 200000 {
		t.Fatalf("unsettled = %+v amount=%d", stats.UnsettledTransfers, stats.UnsettledAmountCents)
	}
	if stats.LowStockCount != 2 {
		// Dash Case at 2 and Dash Phone down to 5 are both at or under the
		// threshold of 5.
		t.Fatalf("low stock count = %d", stats.LowStockCount)
	}
	if len(stats.RecentSales) != 1 {
		t.Fatalf("recent sales = %d", len(stats.RecentSales))
	}
}

// Scenario: purchase 10, sell 3, transfer 4 unsettled, settle, then delete a
// recorded sale. Stock and stats must track every step.
func TestLedgerLifecycleScenario(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Lifecycle Phone", 60000, 0)

	if _, err := svc.AddStock(adminCtx(), domain.StockAddRequest{
		ProductID: product.ID,
		Quantity:  10,
		Reference: "PO-2001",
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	sale, err := svc.CreateSale(adminCtx(), domain.SaleCreateRequest{
		ProductID:     product.ID,
		Quantity:      3,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}

	transfer, err := svc.TransferStock(adminCtx(), domain.StockTransferRequest{
		ProductID: product.ID,
		Quantity:  4,
		Person:    "Partner Shop",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	got, _ := svc.GetProduct(context.Background(), product.ID)
	if got.Stock != 3 {
		t.Fatalf("stock = %d, want 10-3-4=3", got.Stock)
	}

	stats, _ := svc.StockStats(adminCtx())
	if stats.TotalAdded != 10 || stats.TotalTransferred != 4 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.UnsettledAmountCents != 240000 {
		t.Fatalf("unsettled = %d", stats.UnsettledAmountCents)
	}

	if _, err := svc.SettleTransfer(adminCtx(), transfer.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}
	stats, _ = svc.StockStats(adminCtx())
	if stats.UnsettledAmountCents != 0 {
		t.Fatalf("unsettled after settle = %d", stats.UnsettledAmountCents)
	}

	if _, err := svc.DeleteSale(adminCtx(), sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	got, _ = svc.GetProduct(context.Background(), product.ID)
	if got.Stock != 6 {
		t.Fatalf("stock = %d after restock, want 6", got.Stock)
	}
}

func TestProductUpdateCannotTouchStock(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Locked Stock Phone", 30000, 7)

	featured := true
	updated, err := svc.UpdateProduct(adminCtx(), product.ID, domain.ProductUpdateRequest{
		Featured: &featured,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Stock != 7 {
		t.Fatalf("stock = %d after plain update", updated.Stock)
	}
}

func TestListProductsFilterAndPaging(t *testing.T) {
	svc := newTestService()
	for i := 0; i < 5; i++ {
		mustCreateProduct(t, svc, "Page Phone "+string(rune('A'+i)), int64(10000*(i+1)), 5)
	}

	resp, err := svc.ListProducts(context.Background(), domain.ProductFilter{
		Sort:     "price-asc",
		Page:     2,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Total != 5 || resp.Pages != 3 {
		t.Fatalf("total/pages = %d/%d", resp.Total, resp.Pages)
	}
	if len(resp.Products) != 2 {
		t.Fatalf("page size = %d", len(resp.Products))
	}
	if resp.Products[0].PriceCents != 30000 {
		t.Fatalf("page 2 starts at %d", resp.Products[0].PriceCents)
	}

	_, err = svc.ListProducts(context.Background(), domain.ProductFilter{Sort: "random"})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected sort rejection, got %v", err)
	}
}

func TestSoldOutProductsHiddenFromPublicCatalog(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Last Unit Phone", 45000, 1)

	if _, err := svc.CreateSale(adminCtx(), domain.SaleCreateRequest{
		ProductID:     product.ID,
		Quantity:      1,
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	resp, err := svc.ListProducts(context.Background(), domain.ProductFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Total != 0 {
		t.Fatalf("sold-out product visible in public catalog: %+v", resp.Products)
	}

	all, err := svc.ListAllProducts(adminCtx())
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 1 || all[0].Stock != 0 {
		t.Fatalf("admin view = %+v", all)
	}

	// Direct detail lookup still works for a sold-out product.
	got, err := svc.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stock != 0 {
		t.Fatalf("stock = %d", got.Stock)
	}
}

func TestSalesReportExcludesOutOfWindowSales(t *testing.T) {
	repo := memory.New()
	svc := New(repo, nil, nil, 5, 8, 5*time.Second)
	product := mustCreateProduct(t, svc, "Window Phone", 100000, 10)

	// Seed an old sale directly so its timestamp predates every bounded
	// period window.
	if _, err := repo.CreateSale(context.Background(), domain.SaleRecord{
		ProductID:     product.ID,
		Quantity:      1,
		PaymentMethod: "cash",
		CreatedAt:     time.Now().UTC().AddDate(0, 0, -10),
	}); err != nil {
		t.Fatalf("seed old sale: %v", err)
	}
	if _, err := svc.CreateSale(adminCtx(), domain.SaleCreateRequest{
		ProductID:     product.ID,
		Quantity:      2,
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatalf("sale today: %v", err)
	}

	for _, period := range []string{domain.PeriodDaily, domain.PeriodWeekly} {
		report, err := svc.SalesReport(adminCtx(), period)
		if err != nil {
			t.Fatalf("%s report: %v", period, err)
		}
		if report.Summary.TotalOrders != 1 || report.Summary.TotalUnits != 2 {
			t.Fatalf("%s report should omit the 10-day-old sale: %+v", period, report.Summary)
		}
	}

	all, err := svc.SalesReport(adminCtx(), domain.PeriodAll)
	if err != nil {
		t.Fatalf("all report: %v", err)
	}
	if all.Summary.TotalOrders != 2 || all.Summary.TotalUnits != 3 {
		t.Fatalf("all report should include both sales: %+v", all.Summary)
	}
}

func TestDeleteSaleOfDeletedProductSkipsRestock(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Retired Phone", 60000, 3)

	sale, err := svc.CreateSale(adminCtx(), domain.SaleCreateRequest{
		ProductID:     product.ID,
		Quantity:      2,
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}
	if err := svc.DeleteProduct(adminCtx(), product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	// The restock has nowhere to land, but the record still goes away.
	removed, err := svc.DeleteSale(adminCtx(), sale.ID)
	if err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if removed.ID != sale.ID {
		t.Fatalf("removed = %+v", removed)
	}
	if _, err := svc.GetSale(adminCtx(), sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("sale should be gone, got %v", err)
	}
	if _, err := svc.GetProduct(context.Background(), product.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("product should stay deleted, got %v", err)
	}
}
