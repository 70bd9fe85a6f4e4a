package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"zainmobiles/backend/internal/cache"
	"zainmobiles/backend/internal/domain"
	"zainmobiles/backend/internal/imagestore"
	"zainmobiles/backend/internal/reporting"
	"zainmobiles/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const dashboardCacheKey = "shop:dashboard:stats"

type Service struct {
	repo              store.Repository
	dashCache         cache.DashboardCache
	uploader          imagestore.Uploader
	lowStockThreshold int
	recentSalesLimit  int
	dashboardTTL      time.Duration
}

func New(repo store.Repository, dashCache cache.DashboardCache, uploader imagestore.Uploader, lowStockThreshold int, recentSalesLimit int, dashboardTTL time.Duration) *Service {
	if dashCache == nil {
		dashCache = cache.NoopDashboardCache{}
	}
	if uploader == nil {
		uploader = imagestore.Disabled{}
	}
	if lowStockThreshold < 1 {
		lowStockThreshold = 5
	}
	if recentSalesLimit < 1 {
		recentSalesLimit = 8
	}
	if dashboardTTL <= 0 {
		dashboardTTL = 30 * time.Second
	}

	return &Service{
		repo:              repo,
		dashCache:         dashCache,
		uploader:          uploader,
		lowStockThreshold: lowStockThreshold,
		recentSalesLimit:  recentSalesLimit,
		dashboardTTL:      dashboardTTL,
	}
}

// invalidateDashboard drops the cached dashboard after any write that
// changes products, stock or sales. Cache failures only log.
func (s *Service) invalidateDashboard(ctx context.Context) {
	if err := s.dashCache.Delete(ctx, dashboardCacheKey); err != nil {
		log.Printf("[service] WARN: failed to invalidate dashboard cache: %v", err)
	}
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 12
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if filter.Category != "" && !domain.IsValidCategory(filter.Category) {
		return domain.ProductListResponse{}, store.ErrInvalidInput
	}
	switch filter.Sort {
	case "", "newest", "price-asc", "price-desc", "name":
	default:
		return domain.ProductListResponse{}, store.ErrInvalidInput
	}

	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return domain.ProductListResponse{}, err
	}
	return domain.ProductListResponse{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		Pages:    pageCount(total, filter.PageSize),
	}, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) ListFeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListFeaturedProducts(ctx, 8)
}

func (s *Service) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListAllProducts(ctx)
}

func (s *Service) ListLowStockProducts(ctx context.Context) ([]domain.LowStockProduct, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	products, err := s.repo.ListLowStockProducts(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	return reporting.LabelLowStock(products), nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Brand = strings.TrimSpace(req.Brand)
	req.Category = strings.TrimSpace(req.Category)

	if req.Name == "" || req.Brand == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	if !domain.IsValidCategory(req.Category) {
		return domain.Product{}, store.ErrInvalidInput
	}
	if req.PriceCents < 1 || req.InitialStock < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}
	if req.OriginalPriceCents != 0 && req.OriginalPriceCents < req.PriceCents {
		return domain.Product{}, store.ErrInvalidInput
	}

	product := domain.Product{
		Name:               req.Name,
		Brand:              req.Brand,
		Category:           req.Category,
		PriceCents:         req.PriceCents,
		OriginalPriceCents: req.OriginalPriceCents,
		Description:        strings.TrimSpace(req.Description),
		ImageURL:           strings.TrimSpace(req.ImageURL),
		Specifications:     req.Specifications,
		Featured:           req.Featured,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	// Initial stock flows through the ledger so the "added" entry exists
	// from day one.
	if req.InitialStock > 0 {
		if _, err := s.repo.ApplyStockMovement(ctx, domain.StockLogEntry{
			ProductID: created.ID,
			Type:      domain.StockTypeAdded,
			Quantity:  req.InitialStock,
			Reference: "initial stock",
		}); err != nil {
			return domain.Product{}, err
		}
		created.Stock = req.InitialStock
	}

	s.invalidateDashboard(ctx)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Brand != nil {
		brand := strings.TrimSpace(*req.Brand)
		if brand == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Brand = brand
	}
	if req.Category != nil {
		if !domain.IsValidCategory(*req.Category) {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Category = *req.Category
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 1 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.OriginalPriceCents != nil {
		if *req.OriginalPriceCents < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.OriginalPriceCents = *req.OriginalPriceCents
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Specifications != nil {
		updated.Specifications = *req.Specifications
	}
	if req.Featured != nil {
		updated.Featured = *req.Featured
	}
	if updated.OriginalPriceCents != 0 && updated.OriginalPriceCents < updated.PriceCents {
		return domain.Product{}, store.ErrInvalidInput
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateDashboard(ctx)
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *Service) AddStock(ctx context.Context, req domain.StockAddRequest) (domain.StockLogEntry, error) {
	return s.applyMovement(ctx, domain.StockLogEntry{
		ProductID: strings.TrimSpace(req.ProductID),
		Type:      domain.StockTypeAdded,
		Quantity:  req.Quantity,
		Reference: strings.TrimSpace(req.Reference),
		Notes:     strings.TrimSpace(req.Notes),
	})
}

func (s *Service) RecordStockSold(ctx context.Context, req domain.StockSoldRequest) (domain.StockLogEntry, error) {
	return s.applyMovement(ctx, domain.StockLogEntry{
		ProductID: strings.TrimSpace(req.ProductID),
		Type:      domain.StockTypeSold,
		Quantity:  req.Quantity,
		Reference: strings.TrimSpace(req.Reference),
		Notes:     strings.TrimSpace(req.Notes),
	})
}

func (s *Service) TransferStock(ctx context.Context, req domain.StockTransferRequest) (domain.StockLogEntry, error) {
	return s.applyMovement(ctx, domain.StockLogEntry{
		ProductID: strings.TrimSpace(req.ProductID),
		Type:      domain.StockTypeTransferred,
		Quantity:  req.Quantity,
		Person:    strings.TrimSpace(req.Person),
		Reference: strings.TrimSpace(req.Reference),
		Notes:     strings.TrimSpace(req.Notes),
	})
}

func (s *Service) applyMovement(ctx context.Context, entry domain.StockLogEntry) (domain.StockLogEntry, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.StockLogEntry{}, fmt.Errorf("admin role required")
	}

	if entry.ProductID == "" || entry.Quantity < 1 {
		return domain.StockLogEntry{}, store.ErrInvalidInput
	}
	if entry.Type == domain.StockTypeTransferred && entry.Person == "" {
		return domain.StockLogEntry{}, store.ErrInvalidInput
	}

	created, err := s.repo.ApplyStockMovement(ctx, entry)
	if err != nil {
		return domain.StockLogEntry{}, err
	}
	s.invalidateDashboard(ctx)
	return *created, nil
}

func (s *Service) SettleTransfer(ctx context.Context, entryID string) (domain.StockLogEntry, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.StockLogEntry{}, fmt.Errorf("admin role required")
	}

	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return domain.StockLogEntry{}, store.ErrInvalidInput
	}
	settled, err := s.repo.SettleStockTransfer(ctx, entryID)
	if err != nil {
		return domain.StockLogEntry{}, err
	}
	s.invalidateDashboard(ctx)
	return *settled, nil
}

func (s *Service) ListStockLogs(ctx context.Context, filter domain.StockLogFilter) (domain.StockLogListResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.StockLogListResponse{}, fmt.Errorf("admin role required")
	}

	if filter.Type != "" && !domain.IsValidStockType(filter.Type) {
		return domain.StockLogListResponse{}, store.ErrInvalidInput
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	logs, total, err := s.repo.ListStockLogs(ctx, filter)
	if err != nil {
		return domain.StockLogListResponse{}, err
	}
	return domain.StockLogListResponse{
		Logs:  logs,
		Total: total,
		Page:  filter.Page,
		Pages: pageCount(total, filter.PageSize),
	}, nil
}

func (s *Service) ListUnsettledTransfers(ctx context.Context) ([]domain.StockLogEntry, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListUnsettledTransfers(ctx)
}

func (s *Service) StockStats(ctx context.Context) (domain.StockStats, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.StockStats{}, fmt.Errorf("admin role required")
	}
	return s.repo.GetStockStats(ctx)
}

func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.SaleRecord, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.SaleRecord{}, fmt.Errorf("admin role required")
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || req.Quantity < 1 {
		return domain.SaleRecord{}, store.ErrInvalidInput
	}
	if !domain.IsValidPaymentMethod(req.PaymentMethod) {
		return domain.SaleRecord{}, store.ErrInvalidInput
	}

	sale := domain.SaleRecord{
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		Customer:      strings.TrimSpace(req.Customer),
		PaymentMethod: req.PaymentMethod,
		Notes:         strings.TrimSpace(req.Notes),
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.SaleRecord{}, err
	}
	s.invalidateDashboard(ctx)
	return *created, nil
}

func (s *Service) DeleteSale(ctx context.Context, saleID string) (domain.SaleRecord, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.SaleRecord{}, fmt.Errorf("admin role required")
	}

	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.SaleRecord{}, store.ErrInvalidInput
	}
	removed, err := s.repo.DeleteSale(ctx, saleID)
	if err != nil {
		return domain.SaleRecord{}, err
	}
	s.invalidateDashboard(ctx)
	return *removed, nil
}

func (s *Service) GetSale(ctx context.Context, saleID string) (domain.SaleRecord, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.SaleRecord{}, fmt.Errorf("admin role required")
	}

	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.SaleRecord{}, store.ErrInvalidInput
	}
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.SaleRecord{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, filter domain.SaleFilter) (domain.SaleListResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.SaleListResponse{}, fmt.Errorf("admin role required")
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return domain.SaleListResponse{}, store.ErrInvalidInput
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	sales, total, err := s.repo.ListSales(ctx, filter)
	if err != nil {
		return domain.SaleListResponse{}, err
	}
	return domain.SaleListResponse{
		Sales: sales,
		Total: total,
		Page:  filter.Page,
		Pages: pageCount(total, filter.PageSize),
	}, nil
}

func (s *Service) SalesReport(ctx context.Context, period string) (domain.SalesReport, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.SalesReport{}, fmt.Errorf("admin role required")
	}

	if period == "" {
		period = domain.PeriodAll
	}
	if !reporting.IsValidPeriod(period) {
		return domain.SalesReport{}, store.ErrInvalidInput
	}

	sales, err := s.repo.ListSalesSince(ctx, reporting.PeriodStart(period, time.Now()))
	if err != nil {
		return domain.SalesReport{}, err
	}
	return reporting.BuildSalesReport(period, sales), nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.DashboardStats{}, fmt.Errorf("admin role required")
	}

	if cached, ok, err := s.dashCache.Get(ctx, dashboardCacheKey); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: dashboard cache read failed: %v", err)
	}

	totalProducts, err := s.repo.CountProducts(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	revenueCents, totalSold, err := s.repo.GetSalesTotals(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	lowStock, err := s.repo.ListLowStockProducts(ctx, s.lowStockThreshold)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	unsettled, err := s.repo.ListUnsettledTransfers(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	recent, err := s.repo.ListRecentSales(ctx, s.recentSalesLimit)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	stats := reporting.BuildDashboard(totalProducts, revenueCents, totalSold, lowStock, unsettled, recent)
	if err := s.dashCache.Set(ctx, dashboardCacheKey, &stats, s.dashboardTTL); err != nil {
		log.Printf("[service] WARN: dashboard cache write failed: %v", err)
	}
	return stats, nil
}

func (s *Service) UploadImage(ctx context.Context, filename string, content io.Reader) (domain.UploadResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.UploadResponse{}, fmt.Errorf("admin role required")
	}

	filename = strings.TrimSpace(filename)
	if filename == "" || content == nil {
		return domain.UploadResponse{}, store.ErrInvalidInput
	}
	url, err := s.uploader.Upload(ctx, filename, content)
	if err != nil {
		return domain.UploadResponse{}, err
	}
	return domain.UploadResponse{URL: url}, nil
}

func pageCount(total int, pageSize int) int {
	if pageSize < 1 || total < 1 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
