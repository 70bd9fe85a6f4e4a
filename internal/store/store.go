package store

import (
	"context"
	"errors"
	"time"

	"zainmobiles/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
)

// Repository is the persistence contract shared by the postgres and
// in-memory stores. Every ledger operation (ApplyStockMovement, CreateSale,
// DeleteSale) must mutate the product stock counter and append/remove the
// ledger record as one atomic unit.
type Repository interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	ListAllProducts(ctx context.Context) ([]domain.Product, error)
	ListFeaturedProducts(ctx context.Context, limit int) ([]domain.Product, error)
	ListLowStockProducts(ctx context.Context, threshold int) ([]domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// ApplyStockMovement validates the referenced product, adjusts its stock
	// (+quantity for added, -quantity for sold/transferred) and appends the
	// ledger entry. ProductName and AmountCents are snapshotted from the
	// product inside the same atomic unit.
	ApplyStockMovement(ctx context.Context, entry domain.StockLogEntry) (*domain.StockLogEntry, error)
	// SettleStockTransfer marks a transferred entry settled. Settling an
	// already-settled entry is a no-op success.
	SettleStockTransfer(ctx context.Context, entryID string) (*domain.StockLogEntry, error)
	ListStockLogs(ctx context.Context, filter domain.StockLogFilter) ([]domain.StockLogEntry, int, error)
	ListUnsettledTransfers(ctx context.Context) ([]domain.StockLogEntry, error)
	GetStockStats(ctx context.Context) (domain.StockStats, error)

	CreateSale(ctx context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error)
	// DeleteSale removes the record and restores the product stock by the
	// recorded quantity (compensating restock).
	DeleteSale(ctx context.Context, saleID string) (*domain.SaleRecord, error)
	GetSaleByID(ctx context.Context, saleID string) (*domain.SaleRecord, error)
	ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.SaleRecord, int, error)
	ListSalesSince(ctx context.Context, from time.Time) ([]domain.SaleRecord, error)
	ListRecentSales(ctx context.Context, limit int) ([]domain.SaleRecord, error)
	GetSalesTotals(ctx context.Context) (revenueCents int64, units int, err error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, email string, password string) error
}
