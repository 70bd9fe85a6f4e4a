package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"zainmobiles/backend/internal/domain"
	"zainmobiles/backend/internal/store"
	"zainmobiles/backend/internal/xid"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const productColumns = `id, name, brand, category, price_cents, original_price_cents, stock, description, image_url, specifications, featured, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	var specs []byte
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.PriceCents, &p.OriginalPriceCents, &p.Stock, &p.Description, &p.ImageURL, &specs, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specifications); err != nil {
			return domain.Product{}, fmt.Errorf("decode specifications for %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func specsJSON(specs map[string]string) (any, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(specs)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	// Sold-out products only show up in the admin ListAllProducts view.
	conditions := []string{"stock > 0"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		conditions = append(conditions, "category = "+arg(filter.Category))
	}
	if filter.Brand != "" {
		conditions = append(conditions, "lower(brand) = lower("+arg(filter.Brand)+")")
	}
	if filter.MinPriceCents > 0 {
		conditions = append(conditions, "price_cents >= "+arg(filter.MinPriceCents))
	}
	if filter.MaxPriceCents > 0 {
		conditions = append(conditions, "price_cents <= "+arg(filter.MaxPriceCents))
	}
	if filter.Featured != nil {
		conditions = append(conditions, "featured = "+arg(*filter.Featured))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := arg("%" + strings.ToLower(search) + "%")
		conditions = append(conditions, "(lower(name) LIKE "+pattern+" OR lower(brand) LIKE "+pattern+" OR lower(description) LIKE "+pattern+")")
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM products WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "created_at DESC, id DESC"
	switch filter.Sort {
	case "price-asc":
		orderBy = "price_cents ASC, id ASC"
	case "price-desc":
		orderBy = "price_cents DESC, id ASC"
	case "name":
		orderBy = "name ASC, id ASC"
	}

	query := "SELECT " + productColumns + " FROM products WHERE " + where + " ORDER BY " + orderBy
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += " LIMIT " + arg(filter.PageSize) + " OFFSET " + arg((page-1)*filter.PageSize)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *Store) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, "SELECT "+productColumns+" FROM products ORDER BY created_at DESC, id DESC")
}

func (s *Store) ListFeaturedProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit < 1 {
		limit = 8
	}
	return s.queryProducts(ctx, "SELECT "+productColumns+" FROM products WHERE featured AND stock > 0 ORDER BY created_at DESC, id DESC LIMIT $1", limit)
}

func (s *Store) ListLowStockProducts(ctx context.Context, threshold int) ([]domain.Product, error) {
	return s.queryProducts(ctx, "SELECT "+productColumns+" FROM products WHERE stock <= $1 ORDER BY stock ASC, name ASC", threshold)
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM products").Scan(&total)
	return total, err
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Brand == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if !domain.IsValidCategory(product.Category) {
		return nil, store.ErrInvalidInput
	}
	if product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	specs, err := specsJSON(product.Specifications)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, brand, category, price_cents, original_price_cents, stock, description, image_url, specifications, featured, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, product.ID, product.Name, product.Brand, product.Category, product.PriceCents, product.OriginalPriceCents, product.Stock, product.Description, product.ImageURL, specs, product.Featured, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Brand == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if !domain.IsValidCategory(product.Category) {
		return nil, store.ErrInvalidInput
	}

	specs, err := specsJSON(product.Specifications)
	if err != nil {
		return nil, err
	}
	// Stock is owned by the ledger; updates never touch it.
	row := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, brand = $3, category = $4, price_cents = $5, original_price_cents = $6,
			description = $7, image_url = $8, specifications = $9, featured = $10, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns+`
	`, product.ID, product.Name, product.Brand, product.Category, product.PriceCents, product.OriginalPriceCents, product.Description, product.ImageURL, specs, product.Featured)

	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// lockProduct loads the product row FOR UPDATE inside tx so concurrent
// ledger operations serialize per product.
func lockProduct(ctx context.Context, tx *sql.Tx, productID string) (name string, priceCents int64, stock int, err error) {
	err = tx.QueryRowContext(ctx, `
		SELECT name, price_cents, stock FROM products WHERE id = $1 FOR UPDATE
	`, productID).Scan(&name, &priceCents, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		err = store.ErrNotFound
	}
	return name, priceCents, stock, err
}

// setStockTx is the single stock-mutation primitive shared by every ledger
// operation. Callers hold the product row lock.
func setStockTx(ctx context.Context, tx *sql.Tx, productID string, stock int) error {
	if stock < 0 {
		return store.ErrInsufficientStock
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE products SET stock = $2, updated_at = now() WHERE id = $1
	`, productID, stock)
	return err
}

func (s *Store) ApplyStockMovement(ctx context.Context, entry domain.StockLogEntry) (*domain.StockLogEntry, error) {
	if !domain.IsValidStockType(entry.Type) || entry.Quantity < 1 {
		return nil, store.ErrInvalidInput
	}
	if entry.Type == domain.StockTypeTransferred && strings.TrimSpace(entry.Person) == "" {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	name, priceCents, stock, err := lockProduct(ctx, tx, entry.ProductID)
	if err != nil {
		return nil, err
	}

	next := stock + entry.Quantity
	if entry.Type != domain.StockTypeAdded {
		next = stock - entry.Quantity
	}
	if err := setStockTx(ctx, tx, entry.ProductID, next); err != nil {
		return nil, err
	}

	if entry.ID == "" {
		entry.ID = xid.New("stk")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.ProductName = name
	entry.AmountCents = int64(entry.Quantity) * priceCents
	entry.Settled = entry.Type != domain.StockTypeTransferred

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_logs (id, product_id, product_name, type, quantity, amount_cents, reference, person, settled, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, entry.ID, entry.ProductID, entry.ProductName, entry.Type, entry.Quantity, entry.AmountCents, entry.Reference, entry.Person, entry.Settled, entry.Notes, entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := entry
	return &created, nil
}

func (s *Store) SettleStockTransfer(ctx context.Context, entryID string) (*domain.StockLogEntry, error) {
	var entry domain.StockLogEntry
	err := s.db.QueryRowContext(ctx, `
		UPDATE stock_logs SET settled = true
		WHERE id = $1 AND type = 'transferred'
		RETURNING id, product_id, product_name, type, quantity, amount_cents, reference, person, settled, notes, created_at
	`, entryID).Scan(&entry.ID, &entry.ProductID, &entry.ProductName, &entry.Type, &entry.Quantity, &entry.AmountCents, &entry.Reference, &entry.Person, &entry.Settled, &entry.Notes, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing entry from a non-transfer entry.
			var entryType string
			lookupErr := s.db.QueryRowContext(ctx, "SELECT type FROM stock_logs WHERE id = $1", entryID).Scan(&entryType)
			if errors.Is(lookupErr, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			if lookupErr != nil {
				return nil, lookupErr
			}
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

func (s *Store) ListStockLogs(ctx context.Context, filter domain.StockLogFilter) ([]domain.StockLogEntry, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = "+arg(filter.Type))
	}
	if filter.Settled != nil {
		conditions = append(conditions, "settled = "+arg(*filter.Settled))
	}
	if filter.ProductID != "" {
		conditions = append(conditions, "product_id = "+arg(filter.ProductID))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM stock_logs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, product_id, product_name, type, quantity, amount_cents, reference, person, settled, notes, created_at
		FROM stock_logs WHERE ` + where + " ORDER BY created_at DESC, id DESC"
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += " LIMIT " + arg(filter.PageSize) + " OFFSET " + arg((page-1)*filter.PageSize)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]domain.StockLogEntry, 0, 32)
	for rows.Next() {
		var entry domain.StockLogEntry
		if err := rows.Scan(&entry.ID, &entry.ProductID, &entry.ProductName, &entry.Type, &entry.Quantity, &entry.AmountCents, &entry.Reference, &entry.Person, &entry.Settled, &entry.Notes, &entry.CreatedAt); err != nil {
			return nil, 0, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (s *Store) ListUnsettledTransfers(ctx context.Context) ([]domain.StockLogEntry, error) {
	settled := false
	logs, _, err := s.ListStockLogs(ctx, domain.StockLogFilter{
		Type:    domain.StockTypeTransferred,
		Settled: &settled,
	})
	return logs, err
}

func (s *Store) GetStockStats(ctx context.Context) (domain.StockStats, error) {
	var stats domain.StockStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(quantity) FILTER (WHERE type = 'added'), 0),
			COALESCE(SUM(quantity) FILTER (WHERE type = 'sold'), 0),
			COALESCE(SUM(quantity) FILTER (WHERE type = 'transferred'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE type = 'transferred' AND NOT settled), 0)
		FROM stock_logs
	`).Scan(&stats.TotalAdded, &stats.TotalSold, &stats.TotalTransferred, &stats.UnsettledAmountCents)
	return stats, err
}

func (s *Store) CreateSale(ctx context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error) {
	if sale.Quantity < 1 {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	name, priceCents, stock, err := lockProduct(ctx, tx, sale.ProductID)
	if err != nil {
		return nil, err
	}
	if err := setStockTx(ctx, tx, sale.ProductID, stock-sale.Quantity); err != nil {
		return nil, err
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.Customer == "" {
		sale.Customer = domain.DefaultCustomer
	}
	sale.ProductName = name
	sale.AmountCents = int64(sale.Quantity) * priceCents

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, product_id, product_name, quantity, customer, payment_method, amount_cents, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, sale.ID, sale.ProductID, sale.ProductName, sale.Quantity, sale.Customer, sale.PaymentMethod, sale.AmountCents, sale.Notes, sale.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := sale
	return &created, nil
}

func (s *Store) DeleteSale(ctx context.Context, saleID string) (*domain.SaleRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var sale domain.SaleRecord
	err = tx.QueryRowContext(ctx, `
		DELETE FROM sales WHERE id = $1
		RETURNING id, product_id, product_name, quantity, customer, payment_method, amount_cents, notes, created_at
	`, saleID).Scan(&sale.ID, &sale.ProductID, &sale.ProductName, &sale.Quantity, &sale.Customer, &sale.PaymentMethod, &sale.AmountCents, &sale.Notes, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	// Restore the stock the sale consumed. A deleted product simply skips
	// the restock; the record still goes away.
	_, _, stock, err := lockProduct(ctx, tx, sale.ProductID)
	if err == nil {
		if err := setStockTx(ctx, tx, sale.ProductID, stock+sale.Quantity); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()
	return &sale, nil
}

const saleColumns = `id, product_id, product_name, quantity, customer, payment_method, amount_cents, notes, created_at`

func (s *Store) GetSaleByID(ctx context.Context, saleID string) (*domain.SaleRecord, error) {
	var sale domain.SaleRecord
	err := s.db.QueryRowContext(ctx, "SELECT "+saleColumns+" FROM sales WHERE id = $1", saleID).
		Scan(&sale.ID, &sale.ProductID, &sale.ProductName, &sale.Quantity, &sale.Customer, &sale.PaymentMethod, &sale.AmountCents, &sale.Notes, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.SaleRecord, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ProductID != "" {
		conditions = append(conditions, "product_id = "+arg(filter.ProductID))
	}
	if filter.Customer != "" {
		conditions = append(conditions, "lower(customer) = lower("+arg(filter.Customer)+")")
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "created_at <= "+arg(*filter.EndDate))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM sales WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + saleColumns + " FROM sales WHERE " + where + " ORDER BY created_at DESC, id DESC"
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += " LIMIT " + arg(filter.PageSize) + " OFFSET " + arg((page-1)*filter.PageSize)
	}

	sales, err := s.querySales(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (s *Store) ListSalesSince(ctx context.Context, from time.Time) ([]domain.SaleRecord, error) {
	if from.IsZero() {
		return s.querySales(ctx, "SELECT "+saleColumns+" FROM sales ORDER BY created_at DESC, id DESC")
	}
	return s.querySales(ctx, "SELECT "+saleColumns+" FROM sales WHERE created_at >= $1 ORDER BY created_at DESC, id DESC", from)
}

func (s *Store) ListRecentSales(ctx context.Context, limit int) ([]domain.SaleRecord, error) {
	if limit < 1 {
		limit = 8
	}
	return s.querySales(ctx, "SELECT "+saleColumns+" FROM sales ORDER BY created_at DESC, id DESC LIMIT $1", limit)
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]domain.SaleRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SaleRecord, 0, 32)
	for rows.Next() {
		var sale domain.SaleRecord
		if err := rows.Scan(&sale.ID, &sale.ProductID, &sale.ProductName, &sale.Quantity, &sale.Customer, &sale.PaymentMethod, &sale.AmountCents, &sale.Notes, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.CreatedAt = sale.CreatedAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) GetSalesTotals(ctx context.Context) (int64, int, error) {
	var revenue int64
	var units int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0), COALESCE(SUM(quantity), 0) FROM sales
	`).Scan(&revenue, &units)
	return revenue, units, err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.Role == "" {
		user.Role = domain.RoleCustomer
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5,true,$6)
	`, user.ID, user.Name, email, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, role, active, created_at FROM users WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).
		Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password, role, active, created_at FROM users ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, email string, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, "UPDATE users SET password = $2 WHERE email = $1", email, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
