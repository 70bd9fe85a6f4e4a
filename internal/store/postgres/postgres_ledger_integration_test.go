package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"zainmobiles/backend/internal/domain"
	"zainmobiles/backend/internal/store"
)

func TestStockLedgerRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("ZAINMOBILES_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set ZAINMOBILES_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prod-ledger-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stock_logs WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, brand, category, price_cents, stock, created_at, updated_at)
		VALUES ($1, 'Ledger IT Phone', 'TestBrand', 'Smartphones', 50000, 10, now(), now())
	`, productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	transfer, err := s.ApplyStockMovement(ctx, domain.StockLogEntry{
		ProductID: productID,
		Type:      domain.StockTypeTransferred,
		Quantity:  3,
		Person:    "Ledger IT Dealer",
	})
	if err != nil {
		t.Fatalf("apply transfer: %v", err)
	}
	if transfer.Settled {
		t.Fatal("expected transfer entry to start unsettled")
	}
	if transfer.AmountCents != 150000 {
		t.Fatalf("expected snapshot amount 150000, got %d", transfer.AmountCents)
	}

	var stock int
	if err := s.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if stock != 7 {
		t.Fatalf("expected stock 7 after transfer, got %d", stock)
	}

	if _, err := s.ApplyStockMovement(ctx, domain.StockLogEntry{
		ProductID: productID,
		Type:      domain.StockTypeSold,
		Quantity:  100,
	}); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock for oversell, got %v", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if stock != 7 {
		t.Fatalf("expected stock unchanged at 7 after failed oversell, got %d", stock)
	}

	settled, err := s.SettleStockTransfer(ctx, transfer.ID)
	if err != nil {
		t.Fatalf("settle transfer: %v", err)
	}
	if !settled.Settled {
		t.Fatal("expected entry settled")
	}

	again, err := s.SettleStockTransfer(ctx, transfer.ID)
	if err != nil {
		t.Fatalf("settle already-settled transfer: %v", err)
	}
	if !again.Settled {
		t.Fatal("expected repeat settle to stay settled")
	}

	sale, err := s.CreateSale(ctx, domain.SaleRecord{
		ProductID:     productID,
		Quantity:      2,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.Customer != domain.DefaultCustomer {
		t.Fatalf("expected default customer, got %s", sale.Customer)
	}
	if sale.AmountCents != 100000 {
		t.Fatalf("expected sale amount 100000, got %d", sale.AmountCents)
	}

	if _, err := s.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if stock != 7 {
		t.Fatalf("expected stock restored to 7 after sale delete, got %d", stock)
	}

	// Deleting a sale whose product is gone skips the restock but still
	// removes the record.
	orphan, err := s.CreateSale(ctx, domain.SaleRecord{
		ProductID:     productID,
		Quantity:      1,
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("create orphan sale: %v", err)
	}
	if err := s.DeleteProduct(ctx, productID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if _, err := s.DeleteSale(ctx, orphan.ID); err != nil {
		t.Fatalf("delete sale of deleted product: %v", err)
	}
	if _, err := s.GetSaleByID(ctx, orphan.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected orphan sale removed, got %v", err)
	}
}
