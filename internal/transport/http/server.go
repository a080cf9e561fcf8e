package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"ragchat/internal/bootstrap"
	"ragchat/internal/transport/http/handler"
	"ragchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.MaxMultipartMemory = int64(app.Config.App.MaxUploadMB) << 20
	router.Use(middleware.RequestLogger(app.Log.Named("http")), gin.Recovery(), middleware.CORS())

	healthHandler := handler.NewHealthHandler(handler.HealthInfo{
		App:       app.Config.App.Name,
		Env:       app.Config.App.Env,
		Backend:   app.Config.Embedding.Backend,
		Model:     app.Embedder.ModelName(),
		Dimension: app.Embedder.Dimension(),
		Store:     app.Config.Store.Driver,
		StartedAt: app.StartedAt,
	}, dependencyChecks(app))
	queryHandler := handler.NewQueryHandler(app.Query)
	ingestHandler := handler.NewIngestHandler(app.Ingest, int64(app.Config.App.MaxUploadMB)<<20)

	var ledger handler.LedgerReader
	if app.Ledger != nil {
		ledger = app.Ledger
	}
	documentsHandler := handler.NewDocumentsHandler(ledger)

	router.GET("/health", healthHandler.Check)
	router.GET("/test-embed", queryHandler.TestEmbed)
	router.POST("/chat", queryHandler.Chat)
	router.POST("/upload", ingestHandler.Upload)
	router.POST("/ingest_cms", ingestHandler.IngestCMS)
	router.GET("/documents", documentsHandler.List)

	return router
}

func dependencyChecks(app *bootstrap.App) map[string]handler.DependencyCheck {
	checks := map[string]handler.DependencyCheck{
		"vectorstore": func(ctx context.Context) error {
			_, err := app.Store.Count(ctx)
			return err
		},
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}
	}
	if app.MySQL != nil {
		checks["mysql"] = func(ctx context.Context) error {
			sqlDB, err := app.MySQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if app.MQConn != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if app.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	return checks
}
