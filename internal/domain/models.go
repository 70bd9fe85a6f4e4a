package domain

import "time"

type Product struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Brand              string            `json:"brand"`
	Category           string            `json:"category"`
	PriceCents         int64             `json:"price_cents"`
	OriginalPriceCents int64             `json:"original_price_cents"`
	Stock              int               `json:"stock"`
	Description        string            `json:"description"`
	ImageURL           string            `json:"image_url"`
	Specifications     map[string]string `json:"specifications,omitempty"`
	Featured           bool              `json:"featured"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name               string            `json:"name"`
	Brand              string            `json:"brand"`
	Category           string            `json:"category"`
	PriceCents         int64             `json:"price_cents"`
	OriginalPriceCents int64             `json:"original_price_cents"`
	InitialStock       int               `json:"initial_stock"`
	Description        string            `json:"description"`
	ImageURL           string            `json:"image_url"`
	Specifications     map[string]string `json:"specifications,omitempty"`
	Featured           bool              `json:"featured"`
}

type ProductUpdateRequest struct {
	Name               *string            `json:"name,omitempty"`
	Brand              *string            `json:"brand,omitempty"`
	Category           *string            `json:"category,omitempty"`
	PriceCents         *int64             `json:"price_cents,omitempty"`
	OriginalPriceCents *int64             `json:"original_price_cents,omitempty"`
	Description        *string            `json:"description,omitempty"`
	ImageURL           *string            `json:"image_url,omitempty"`
	Specifications     *map[string]string `json:"specifications,omitempty"`
	Featured           *bool              `json:"featured,omitempty"`
}

// ProductFilter drives the public catalog listing. MinPriceCents and
// MaxPriceCents of 0 mean unbounded.
type ProductFilter struct {
	Category      string
	Brand         string
	Search        string
	MinPriceCents int64
	MaxPriceCents int64
	Featured      *bool
	Sort          string
	Page          int
	PageSize      int
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// LowStockProduct annotates a product with the alert label shown in the
// admin panel ("Out of Stock" or "N remaining").
type LowStockProduct struct {
	Product
	StockLabel string `json:"stock_label"`
}

type StockLogEntry struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	AmountCents int64     `json:"amount_cents"`
	Reference   string    `json:"reference,omitempty"`
	Person      string    `json:"person,omitempty"`
	Settled     bool      `json:"settled"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type StockAddRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type StockSoldRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type StockTransferRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Person    string `json:"person"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// StockLogFilter narrows the stock ledger listing. Settled is tri-state:
// nil means both settled and unsettled entries.
type StockLogFilter struct {
	Type      string
	Settled   *bool
	ProductID string
	Page      int
	PageSize  int
}

type StockLogListResponse struct {
	Logs  []StockLogEntry `json:"logs"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Pages int             `json:"pages"`
}

type StockStats struct {
	TotalAdded           int   `json:"total_added"`
	TotalSold            int   `json:"total_sold"`
	TotalTransferred     int   `json:"total_transferred"`
	UnsettledAmountCents int64 `json:"unsettled_amount_cents"`
}

type SaleRecord struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Quantity      int       `json:"quantity"`
	Customer      string    `json:"customer"`
	PaymentMethod string    `json:"payment_method"`
	AmountCents   int64     `json:"amount_cents"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type SaleCreateRequest struct {
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	Customer      string `json:"customer,omitempty"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes,omitempty"`
}

type SaleFilter struct {
	ProductID string
	Customer  string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

type SaleListResponse struct {
	Sales []SaleRecord `json:"sales"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Pages int          `json:"pages"`
}

type SalesSummary struct {
	TotalRevenueCents int64 `json:"total_revenue_cents"`
	TotalOrders       int   `json:"total_orders"`
	TotalUnits        int   `json:"total_units"`
}

type ProductSales struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	TotalQuantity     int    `json:"total_quantity"`
	TotalRevenueCents int64  `json:"total_revenue_cents"`
	TotalOrders       int    `json:"total_orders"`
}

type DailySales struct {
	Date         string `json:"date"`
	RevenueCents int64  `json:"revenue_cents"`
	Orders       int    `json:"orders"`
}

type SalesReport struct {
	Period           string         `json:"period"`
	Summary          SalesSummary   `json:"summary"`
	ProductWiseSales []ProductSales `json:"product_wise_sales"`
	DailyBreakdown   []DailySales   `json:"daily_breakdown"`
}

type DashboardStats struct {
	TotalProducts        int               `json:"total_products"`
	TotalRevenueCents    int64             `json:"total_revenue_cents"`
	TotalSold            int               `json:"total_sold"`
	LowStockCount        int               `json:"low_stock_count"`
	UnsettledTransfers   []StockLogEntry   `json:"unsettled_transfers"`
	UnsettledAmountCents int64             `json:"unsettled_amount_cents"`
	RecentSales          []SaleRecord      `json:"recent_sales"`
	LowStockProducts     []LowStockProduct `json:"low_stock_products"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	Token     string   `json:"token"`
	User      AuthUser `json:"user"`
	ExpiresAt string   `json:"expires_at"`
}

type Actor struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type UploadResponse struct {
	URL string `json:"url"`
}

const (
	StockTypeAdded       = "added"
	StockTypeSold        = "sold"
	StockTypeTransferred = "transferred"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const DefaultCustomer = "Walk-in"

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAll     = "all"
)

var Categories = []string{"Smartphones", "Accessories", "Tablets", "Wearables"}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

var PaymentMethods = []string{"cash", "card", "online", "credit"}

func IsValidPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

func IsValidStockType(t string) bool {
	return t == StockTypeAdded || t == StockTypeSold || t == StockTypeTransferred
}
