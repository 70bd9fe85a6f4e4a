package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"zainmobiles/backend/internal/domain"
	"zainmobiles/backend/internal/store"
	"zainmobiles/backend/internal/xid"
)

type Store struct {
	mu           sync.RWMutex
	productsByID map[string]domain.Product
	stockLogs    []domain.StockLogEntry
	salesByID    map[string]domain.SaleRecord
	usersByEmail map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CUSTOMER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	customerPwd := envOr("SEED_CUSTOMER_PASSWORD", "customer123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CUSTOMER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CUSTOMER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		name     string
		email    string
		password string
		role     string
	}{
		{"Shop Admin", "admin@zainmobiles.com", adminPwd, domain.RoleAdmin},
		{"Demo Customer", "customer@zainmobiles.com", customerPwd, domain.RoleCustomer},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.email, err)
		}
		users[u.email] = domain.UserAccount{
			ID:        xid.New("user"),
			Name:      u.name,
			Email:     u.email,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	products := []domain.Product{
		{Name: "Galaxy S24 Ultra", Brand: "Samsung", Category: "Smartphones", PriceCents: 119999_00, OriginalPriceCents: 129999_00, Stock: 15, Featured: true, Specifications: map[string]string{"display": "6.8\" QHD+", "storage": "256GB", "ram": "12GB"}},
		{Name: "iPhone 15 Pro", Brand: "Apple", Category: "Smartphones", PriceCents: 134900_00, Stock: 12, Featured: true, Specifications: map[string]string{"display": "6.1\" Super Retina", "storage": "128GB", "chip": "A17 Pro"}},
		{Name: "Pixel 8a", Brand: "Google", Category: "Smartphones", PriceCents: 52999_00, OriginalPriceCents: 59999_00, Stock: 20, Specifications: map[string]string{"display": "6.1\" OLED", "storage": "128GB"}},
		{Name: "Redmi Note 13", Brand: "Xiaomi", Category: "Smartphones", PriceCents: 17999_00, Stock: 35, Specifications: map[string]string{"display": "6.67\" AMOLED", "storage": "128GB"}},
		{Name: "Galaxy Tab S9", Brand: "Samsung", Category: "Tablets", PriceCents: 74999_00, Stock: 8, Featured: true},
		{Name: "iPad 10th Gen", Brand: "Apple", Category: "Tablets", PriceCents: 44900_00, Stock: 10},
		{Name: "Watch Series 9", Brand: "Apple", Category: "Wearables", PriceCents: 41900_00, Stock: 6},
		{Name: "Galaxy Buds2 Pro", Brand: "Samsung", Category: "Accessories", PriceCents: 17999_00, OriginalPriceCents: 22999_00, Stock: 25},
		{Name: "25W Fast Charger", Brand: "Samsung", Category: "Accessories", PriceCents: 1499_00, Stock: 60},
		{Name: "Clear Case iPhone 15", Brand: "Apple", Category: "Accessories", PriceCents: 4900_00, Stock: 3},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		p.ID = xid.New("prod")
		p.CreatedAt = now
		p.UpdatedAt = now
		productMap[p.ID] = p
	}

	return &Store{
		productsByID: productMap,
		stockLogs:    make([]domain.StockLogEntry, 0, 128),
		salesByID:    make(map[string]domain.SaleRecord),
		usersByEmail: seedUsers(),
	}
}

// New returns an empty store, used by tests that want full control over
// seeded data.
func New() *Store {
	return &Store{
		productsByID: make(map[string]domain.Product),
		stockLogs:    make([]domain.StockLogEntry, 0, 32),
		salesByID:    make(map[string]domain.SaleRecord),
		usersByEmail: make(map[string]domain.UserAccount),
	}
}

func (s *Store) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.productsByID))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, p := range s.productsByID {
		// The public catalog hides sold-out products; ListAllProducts is the
		// admin view that includes them.
		if p.Stock < 1 {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Brand != "" && !strings.EqualFold(p.Brand, filter.Brand) {
			continue
		}
		if filter.MinPriceCents > 0 && p.PriceCents < filter.MinPriceCents {
			continue
		}
		if filter.MaxPriceCents > 0 && p.PriceCents > filter.MaxPriceCents {
			continue
		}
		if filter.Featured != nil && p.Featured != *filter.Featured {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		result = append(result, cloneProduct(p))
	}

	sortProducts(result, filter.Sort)
	total := len(result)
	result = paginate(result, filter.Page, filter.PageSize)
	return result, total, nil
}

func sortProducts(products []domain.Product, sort string) {
	switch sort {
	case "price-asc":
		slices.SortFunc(products, func(a, b domain.Product) int {
			if a.PriceCents == b.PriceCents {
				return cmpString(a.ID, b.ID)
			}
			if a.PriceCents < b.PriceCents {
				return -1
			}
			return 1
		})
	case "price-desc":
		slices.SortFunc(products, func(a, b domain.Product) int {
			if a.PriceCents == b.PriceCents {
				return cmpString(a.ID, b.ID)
			}
			if a.PriceCents > b.PriceCents {
				return -1
			}
			return 1
		})
	case "name":
		slices.SortFunc(products, func(a, b domain.Product) int {
			return cmpString(a.Name, b.Name)
		})
	default: // newest
		slices.SortFunc(products, func(a, b domain.Product) int {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return cmpString(b.ID, a.ID)
			}
			if a.CreatedAt.After(b.CreatedAt) {
				return -1
			}
			return 1
		})
	}
}

func (s *Store) ListAllProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		result = append(result, cloneProduct(p))
	}
	sortProducts(result, "newest")
	return result, nil
}

func (s *Store) ListFeaturedProducts(_ context.Context, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, 8)
	for _, p := range s.productsByID {
		if !p.Featured || p.Stock < 1 {
			continue
		}
		result = append(result, cloneProduct(p))
	}
	sortProducts(result, "newest")
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ListLowStockProducts(_ context.Context, threshold int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, 16)
	for _, p := range s.productsByID {
		if p.Stock > threshold {
			continue
		}
		result = append(result, cloneProduct(p))
	}
	slices.SortFunc(result, func(a, b domain.Product) int {
		if a.Stock == b.Stock {
			return cmpString(a.Name, b.Name)
		}
		if a.Stock < b.Stock {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) CountProducts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.productsByID), nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.productsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := cloneProduct(product)
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.productsByID[product.ID] = cloneProduct(product)
	created := cloneProduct(product)
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.Brand == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if !domain.IsValidCategory(product.Category) {
		return nil, store.ErrInvalidInput
	}
	existing, exists := s.productsByID[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}

	// Stock is owned by the ledger; updates never touch it.
	product.Stock = existing.Stock
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.productsByID[product.ID] = cloneProduct(product)
	updated := cloneProduct(product)
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.productsByID, id)
	return nil
}

// adjustStock is the single stock-mutation primitive. Callers hold s.mu.
// delta may be negative; a result below zero fails with ErrInsufficientStock
// and leaves the product untouched.
func (s *Store) adjustStock(productID string, delta int) (*domain.Product, error) {
	product, exists := s.productsByID[productID]
	if !exists {
		return nil, store.ErrNotFound
	}
	next := product.Stock + delta
	if next < 0 {
		return nil, store.ErrInsufficientStock
	}
	product.Stock = next
	product.UpdatedAt = time.Now().UTC()
	s.productsByID[productID] = product
	return &product, nil
}

func (s *Store) ApplyStockMovement(_ context.Context, entry domain.StockLogEntry) (*domain.StockLogEntry, error) {
	if !domain.IsValidStockType(entry.Type) || entry.Quantity < 1 {
		return nil, store.ErrInvalidInput
	}
	if entry.Type == domain.StockTypeTransferred && strings.TrimSpace(entry.Person) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delta := entry.Quantity
	if entry.Type != domain.StockTypeAdded {
		delta = -entry.Quantity
	}
	product, err := s.adjustStock(entry.ProductID, delta)
	if err != nil {
		return nil, err
	}

	if entry.ID == "" {
		entry.ID = xid.New("stk")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.ProductName = product.Name
	entry.AmountCents = int64(entry.Quantity) * product.PriceCents
	entry.Settled = entry.Type != domain.StockTypeTransferred

	s.stockLogs = append(s.stockLogs, entry)
	created := entry
	return &created, nil
}

func (s *Store) SettleStockTransfer(_ context.Context, entryID string) (*domain.StockLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.stockLogs {
		if s.stockLogs[i].ID != entryID {
			continue
		}
		if s.stockLogs[i].Type != domain.StockTypeTransferred {
			return nil, store.ErrInvalidInput
		}
		s.stockLogs[i].Settled = true
		settled := s.stockLogs[i]
		return &settled, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListStockLogs(_ context.Context, filter domain.StockLogFilter) ([]domain.StockLogEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockLogEntry, 0, len(s.stockLogs))
	for _, entry := range s.stockLogs {
		if filter.Type != "" && entry.Type != filter.Type {
			continue
		}
		if filter.Settled != nil && entry.Settled != *filter.Settled {
			continue
		}
		if filter.ProductID != "" && entry.ProductID != filter.ProductID {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.StockLogEntry) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	total := len(result)
	result = paginate(result, filter.Page, filter.PageSize)
	return result, total, nil
}

func (s *Store) ListUnsettledTransfers(_ context.Context) ([]domain.StockLogEntry, error) {
	settled := false
	logs, _, err := s.ListStockLogs(context.Background(), domain.StockLogFilter{
		Type:    domain.StockTypeTransferred,
		Settled: &settled,
	})
	return logs, err
}

func (s *Store) GetStockStats(_ context.Context) (domain.StockStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.StockStats{}
	for _, entry := range s.stockLogs {
		switch entry.Type {
		case domain.StockTypeAdded:
			stats.TotalAdded += entry.Quantity
		case domain.StockTypeSold:
			stats.TotalSold += entry.Quantity
		case domain.StockTypeTransferred:
			stats.TotalTransferred += entry.Quantity
			if !entry.Settled {
				stats.UnsettledAmountCents += entry.AmountCents
			}
		}
	}
	return stats, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error) {
	if sale.Quantity < 1 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.adjustStock(sale.ProductID, -sale.Quantity)
	if err != nil {
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
	sale.ProductName = product.Name
	sale.AmountCents = int64(sale.Quantity) * product.PriceCents

	s.salesByID[sale.ID] = sale
	created := sale
	return &created, nil
}

func (s *Store) DeleteSale(_ context.Context, saleID string) (*domain.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[saleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	// Restore the stock the sale consumed. A deleted product simply skips
	// the restock; the record still goes away.
	if _, exists := s.productsByID[sale.ProductID]; exists {
		if _, err := s.adjustStock(sale.ProductID, sale.Quantity); err != nil {
			return nil, err
		}
	}
	delete(s.salesByID, saleID)
	removed := sale
	return &removed, nil
}

func (s *Store) GetSaleByID(_ context.Context, saleID string) (*domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[saleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := sale
	return &copySale, nil
}

func (s *Store) ListSales(_ context.Context, filter domain.SaleFilter) ([]domain.SaleRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SaleRecord, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if filter.ProductID != "" && sale.ProductID != filter.ProductID {
			continue
		}
		if filter.Customer != "" && !strings.EqualFold(sale.Customer, filter.Customer) {
			continue
		}
		if filter.StartDate != nil && sale.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && sale.CreatedAt.After(*filter.EndDate) {
			continue
		}
		result = append(result, sale)
	}

	sortSalesNewestFirst(result)
	total := len(result)
	result = paginate(result, filter.Page, filter.PageSize)
	return result, total, nil
}

func (s *Store) ListSalesSince(_ context.Context, from time.Time) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SaleRecord, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		result = append(result, sale)
	}
	sortSalesNewestFirst(result)
	return result, nil
}

func (s *Store) ListRecentSales(_ context.Context, limit int) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SaleRecord, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		result = append(result, sale)
	}
	sortSalesNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetSalesTotals(_ context.Context) (int64, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var revenue int64
	units := 0
	for _, sale := range s.salesByID {
		revenue += sale.AmountCents
		units += sale.Quantity
	}
	return revenue, units, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByEmail[email]; exists {
		return store.ErrInvalidInput
	}
	user.Email = email
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.Role == "" {
		user.Role = domain.RoleCustomer
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByEmail[user.Email] = user
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByEmail))
	for _, user := range s.usersByEmail {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Email, b.Email)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, email string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByEmail[email]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByEmail[email] = user
	return nil
}

func sortSalesNewestFirst(sales []domain.SaleRecord) {
	slices.SortFunc(sales, func(a, b domain.SaleRecord) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
}

func paginate[T any](items []T, page int, pageSize int) []T {
	if pageSize < 1 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneProduct(src domain.Product) domain.Product {
	dup := src
	if src.Specifications != nil {
		specs := make(map[string]string, len(src.Specifications))
		for k, v := range src.Specifications {
			specs[k] = v
		}
		dup.Specifications = specs
	}
	return dup
}
