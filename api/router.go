// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"mcph/crate-api/aws"
	"mcph/crate-api/db"
	"mcph/crate-api/internal/apikey"
	"mcph/crate-api/internal/crate"
	"mcph/crate-api/mcp"
	"mcph/crate-api/middleware"
	"mcph/crate-api/pkg/security"

	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	DB     *gorm.DB
	Router *gin.Engine
	Crates *crate.Service
	Keys   *apikey.Service
}

func NewRouter() (*API, error) {
	a := &API{}

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = database

	makeLogger()

	s3, err := aws.NewS3()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}

	argon := security.New()
	a.Crates = crate.NewService(database, s3, argon)
	a.Keys = apikey.NewService(database, argon)

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	identity := middleware.NewIdentityMiddleware(a.Keys)
	auth := middleware.RequireAuth()
	maxUploadSize := viper.GetInt64("upload.max_size")

	rateLimit := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: viper.GetInt("mcp.rate_limit.rps"),
		Burst:             viper.GetInt("mcp.rate_limit.burst"),
	})

	main := router.Group("/api", identity)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)
	}

	crates := main.Group("/crates")
	{
		// GET /api/crates 		-> Lists the caller's crates
		crates.GET("", auth, a.CrateList)

		// GET /api/crates/search	-> Searches the caller's crates
		crates.GET("/search", auth, a.CrateSearch)

		// POST /api/crates		-> Uploads a new crate
		crates.POST("", rateLimit, middleware.BodySizeLimiter(maxUploadSize), a.CrateUpload)

		// POST /api/crates/transfer-ownership -> Claims anonymous crates
		crates.POST("/transfer-ownership", auth, a.CrateTransfer)

		// GET /api/crates/:id 		-> Returns crate metadata
		crates.GET("/:id", cacheFor(30), a.CrateGet)

		// POST /api/crates/:id		-> Returns crate content inline
		crates.POST("/:id", a.CrateContent)

		// GET /api/crates/:id/download	-> Redirects to a signed download URL
		crates.GET("/:id/download", a.CrateDownload)

		// POST /api/crates/:id/confirm	-> Finalizes a pending signed upload
		crates.POST("/:id/confirm", a.CrateConfirm)

		// PATCH /api/crates/:id	-> Edits crate metadata
		crates.PATCH("/:id", auth, a.CrateEdit)

		// PATCH /api/crates/:id/expiry	-> Resets the crate expiry
		crates.PATCH("/:id/expiry", auth, a.CrateExpiry)

		// POST /api/crates/:id/share	-> Opens a crate for sharing
		crates.POST("/:id/share", auth, a.CrateShare)

		// POST /api/crates/:id/unshare	-> Makes a crate private again
		crates.POST("/:id/unshare", auth, a.CrateUnshare)

		// DELETE /api/crates/:id	-> Deletes a crate and its bytes
		crates.DELETE("/:id", auth, a.CrateDelete)
	}

	keys := main.Group("/keys", auth, middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/keys		-> Mints a new API key
		keys.POST("", a.KeyCreate)

		// GET /api/keys		-> Lists the caller's API keys
		keys.GET("", a.KeyFetch)

		// DELETE /api/keys/:id		-> Revokes an API key
		keys.DELETE("/:id", a.KeyDelete)
	}

	// POST /mcp -> JSON-RPC gateway used by agent callers. Same core,
	// different wire format
	mcpServer := mcp.NewServer(a.Crates)
	router.POST("/mcp", rateLimit, identity, mcpServer.Handle)

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
