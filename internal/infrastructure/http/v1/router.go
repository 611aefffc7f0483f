// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockbooks/internal/domain/auth"
	"stockbooks/internal/domain/catalogs/account"
	"stockbooks/internal/domain/catalogs/customer"
	"stockbooks/internal/domain/catalogs/product"
	"stockbooks/internal/domain/catalogs/supplier"
	"stockbooks/internal/domain/documents/outsourcing"
	"stockbooks/internal/domain/documents/purchaseorder"
	"stockbooks/internal/domain/documents/quotation"
	"stockbooks/internal/domain/documents/sale"
	"stockbooks/internal/domain/ledgers/moneyledger"
	"stockbooks/internal/domain/ledgers/stockledger"
	"stockbooks/internal/domain/profit"
	"stockbooks/internal/infrastructure/http/v1/handlers"
	"stockbooks/internal/infrastructure/http/v1/middleware"
	"stockbooks/internal/infrastructure/storage/postgres"
	"stockbooks/internal/infrastructure/storage/postgres/catalog_repo"
	"stockbooks/internal/infrastructure/storage/postgres/document_repo"
	"stockbooks/internal/infrastructure/storage/postgres/ledger_repo"
	"stockbooks/internal/infrastructure/storage/postgres/profit_repo"
	"stockbooks/internal/infrastructure/storage/postgres/report_repo"
	"stockbooks/pkg/logger"
	"stockbooks/pkg/numerator"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (used by health checks).
	Pool *postgres.Pool

	// TxManager coordinates database transactions for all repositories.
	TxManager *postgres.TxManager

	// Audit records document header changes. Shared by all document repos.
	Audit *postgres.AuditService

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints.
	AuthService *auth.Service

	// Version is reported by /health/info.
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Shared domain wiring. Repos get the transaction manager at
	// construction; ledger services run inside whatever transaction the
	// caller opened.
	num := numerator.New(postgres.NewNumeratorQuerier(cfg.TxManager))

	stockLedger := stockledger.NewService(ledger_repo.NewStockRepo(cfg.TxManager))
	moneyLedger := moneyledger.NewService(ledger_repo.NewMoneyRepo(cfg.TxManager))
	profitService := profit.NewService(profit_repo.NewProfitRepo(cfg.TxManager), cfg.TxManager)

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerCatalogRoutes(protected, cfg, num, moneyLedger)
		registerDocumentRoutes(protected, cfg, num, stockLedger, moneyLedger, profitService)
		registerLedgerRoutes(protected, cfg, stockLedger, moneyLedger)
		registerReportRoutes(protected, cfg, profitService)
		registerAuditRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig, num *numerator.Service, moneyLedger *moneyledger.Service) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	// --- PRODUCTS ---
	{
		repo := catalog_repo.NewProductRepo(cfg.TxManager)
		service := product.NewService(repo, num, cfg.TxManager)
		handler := handlers.NewProductHandler(baseHandler, service)
		handler.RegisterRoutes(catalogs.Group("/products"))
	}

	// --- CUSTOMERS ---
	{
		repo := catalog_repo.NewCustomerRepo(cfg.TxManager)
		service := customer.NewService(repo, num, cfg.TxManager)
		handler := handlers.NewCustomerHandler(baseHandler, service, moneyLedger)
		handler.RegisterRoutes(catalogs.Group("/customers"))
	}

	// --- SUPPLIERS ---
	{
		repo := catalog_repo.NewSupplierRepo(cfg.TxManager)
		service := supplier.NewService(repo, num, cfg.TxManager)
		handler := handlers.NewSupplierHandler(baseHandler, service)
		handler.RegisterRoutes(catalogs.Group("/suppliers"))
	}

	// --- ACCOUNTS ---
	{
		repo := catalog_repo.NewAccountRepo(cfg.TxManager)
		service := account.NewService(repo, num, cfg.TxManager)
		handler := handlers.NewAccountHandler(baseHandler, service)
		handler.RegisterRoutes(catalogs.Group("/accounts"))
	}
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(
	rg *gin.RouterGroup,
	cfg RouterConfig,
	num *numerator.Service,
	stockLedger *stockledger.Service,
	moneyLedger *moneyledger.Service,
	profitService *profit.Service,
) {
	docs := rg.Group("/documents")
	baseHandler := handlers.NewBaseHandler()

	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	supplierRepo := catalog_repo.NewSupplierRepo(cfg.TxManager)

	outsourcingService := outsourcing.NewService(
		document_repo.NewOutsourcingRepo(cfg.TxManager, cfg.Audit),
		stockLedger,
		num,
		cfg.TxManager,
	)

	saleService := sale.NewService(
		document_repo.NewSaleRepo(cfg.TxManager, cfg.Audit),
		productRepo,
		stockLedger,
		moneyLedger,
		outsourcingService,
		profitService,
		num,
		cfg.TxManager,
	)

	// --- SALES ---
	{
		handler := handlers.NewSaleHandler(baseHandler, saleService)
		handler.RegisterRoutes(docs.Group("/sales"))
	}

	// --- PURCHASE ORDERS ---
	{
		service := purchaseorder.NewService(
			document_repo.NewPurchaseOrderRepo(cfg.TxManager, cfg.Audit),
			supplierRepo,
			stockLedger,
			num,
			cfg.TxManager,
		)
		handler := handlers.NewPurchaseOrderHandler(baseHandler, service)
		handler.RegisterRoutes(docs.Group("/purchase-orders"))
	}

	// --- QUOTATIONS ---
	{
		service := quotation.NewService(
			document_repo.NewQuotationRepo(cfg.TxManager, cfg.Audit),
			stockLedger,
			saleService,
			num,
			cfg.TxManager,
		)
		handler := handlers.NewQuotationHandler(baseHandler, service)
		handler.RegisterRoutes(docs.Group("/quotations"))
	}

	// --- OUTSOURCING ORDERS ---
	{
		handler := handlers.NewOutsourcingHandler(baseHandler, outsourcingService)
		handler.RegisterRoutes(docs.Group("/outsourcing-orders"))
	}
}

// registerLedgerRoutes registers direct ledger endpoints. Mutations are
// wrapped in a transaction by the handler because ledger services join the
// caller's transaction instead of opening their own.
func registerLedgerRoutes(
	rg *gin.RouterGroup,
	cfg RouterConfig,
	stockLedger *stockledger.Service,
	moneyLedger *moneyledger.Service,
) {
	ledgers := rg.Group("/ledgers")
	baseHandler := handlers.NewBaseHandler()

	stockHandler := handlers.NewStockLedgerHandler(baseHandler, stockLedger, cfg.TxManager)
	stockHandler.RegisterRoutes(ledgers.Group("/stock"))

	moneyHandler := handlers.NewMoneyLedgerHandler(baseHandler, moneyLedger, cfg.TxManager)
	moneyHandler.RegisterRoutes(ledgers.Group("/money"))
}

// registerAuditRoutes registers the change-history endpoints. Admin only.
func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Audit == nil {
		return
	}

	auditGroup := rg.Group("/audit")
	auditGroup.Use(middleware.RequireAdmin())

	handler := handlers.NewAuditHandler(handlers.NewBaseHandler(), cfg.Audit)
	handler.RegisterRoutes(auditGroup)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig, profitService *profit.Service) {
	reportsGroup := rg.Group("/reports")
	baseHandler := handlers.NewBaseHandler()

	reportRepo := report_repo.NewReportRepo(cfg.TxManager)
	handler := handlers.NewReportHandler(baseHandler, reportRepo, profitService)

	handler.RegisterRoutes(reportsGroup)

	adminReports := reportsGroup.Group("")
	adminReports.Use(middleware.RequireAdmin())
	handler.RegisterAdminRoutes(adminReports)
}
