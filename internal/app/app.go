// Package app はストア・サービス・ルーティングを組み立てる
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "library-backend/docs"
	"library-backend/internal/library/catalog"
	"library-backend/internal/library/fees"
	"library-backend/internal/library/lends"
	"library-backend/internal/library/sampledata"
	"library-backend/internal/library/search"
	"library-backend/internal/library/status"
	"library-backend/internal/platform/auth"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/memdb"
	"library-backend/internal/platform/middleware"
)

type Stores struct {
	Books    catalog.BookStore
	Loans    lends.LoanStore
	Accounts auth.AccountStore
}

type App struct {
	Router  *gin.Engine
	Catalog *catalog.Service
	Lends   *lends.Service
	Auth    *auth.Service
	Search  *search.Index
	Status  *status.Reporter
	conn    *sqlx.DB
	log     *zap.Logger
	cfg     *config.Config
}

// OpenStores は storage 設定に応じてストアを用意する。mysql の場合は接続も返す（呼び出し側で Close）
func OpenStores(ctx context.Context, cfg *config.Config) (Stores, *sqlx.DB, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		mem := memdb.New()
		return Stores{Books: mem, Loans: mem, Accounts: mem}, nil, nil
	case config.StorageMySQL:
		conn, err := db.Connect(cfg.DB)
		if err != nil {
			return Stores{}, nil, err
		}
		if err := db.MigrateUp(ctx, conn.DB); err != nil {
			conn.Close()
			return Stores{}, nil, err
		}
		return Stores{
			Books:    catalog.NewStore(conn),
			Loans:    lends.NewStore(conn),
			Accounts: auth.NewStore(conn),
		}, conn, nil
	default:
		return Stores{}, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

func RulesFromConfig(cfg *config.Config) (lends.Rules, error) {
	policy, err := fees.NewPolicy(cfg.Fees.ShortTierDays, cfg.Fees.ShortRate, cfg.Fees.LongRate, cfg.Fees.Cap, cfg.Fees.Timezone)
	if err != nil {
		return lends.Rules{}, fmt.Errorf("invalid fee policy: %w", err)
	}
	return lends.Rules{
		LoanPeriodDays: cfg.Lending.LoanPeriodDays,
		MaxOpenLoans:   cfg.Lending.MaxOpenLoans,
		Fees:           policy,
	}, nil
}

// New wires the services onto the given stores and builds the router.
func New(ctx context.Context, cfg *config.Config, stores Stores, log *zap.Logger) (*App, error) {
	rules, err := RulesFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Catalog: catalog.NewService(stores.Books, log),
		Lends:   lends.NewService(stores.Loans, rules, log),
		Auth:    auth.NewService(stores.Accounts, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log),
		Search:  search.NewIndex(stores.Books),
		Status:  status.NewReporter(stores.Loans, rules.Fees),
		log:     log,
		cfg:     cfg,
	}

	admin := cfg.Auth.BootstrapAdmin
	if err := a.Auth.EnsureAdmin(ctx, admin.ID, admin.Password); err != nil {
		return nil, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	if cfg.SeedSampleData {
		if err := sampledata.Load(ctx, a.Catalog, a.Lends, log); err != nil {
			return nil, err
		}
	}

	lr := a.Lends.Rules()
	log.Info("lending rules",
		zap.Int("loan_period_days", lr.LoanPeriodDays),
		zap.Int("max_open_loans", lr.MaxOpenLoans),
		zap.String("fee_cap", lr.Fees.Cap.StringFixed(2)),
		zap.String("fee_timezone", lr.Fees.Location.String()),
	)

	a.Router = a.routes()
	return a, nil
}

// Open は OpenStores + New。Close で DB 接続を閉じる
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	stores, conn, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, cfg, stores, log)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, err
	}
	a.conn = conn
	return a, nil
}

func (a *App) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

func (a *App) routes() *gin.Engine {
	if a.cfg.Mode == config.ModeRelease {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(a.log), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if a.cfg.Mode == config.ModeDev {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	secret := a.Auth.Secret()
	api := r.Group("/api/v1")
	// /books/search は /books/:id より先に登録する
	search.RegisterRoutes(api, a.Search)
	catalog.RegisterRoutes(api, a.Catalog, auth.Librarian(secret)...)
	lends.RegisterRoutes(api, a.Lends)
	status.RegisterRoutes(api, a.Status)
	auth.RegisterRoutes(api, a.Auth, auth.Admin(secret)...)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})
	return r
}
