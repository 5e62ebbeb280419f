package main

import (
	"context"
	"encoding/base64"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"siteclock.com/siteclock/core"
	"siteclock.com/siteclock/infrastructure/devops"
	"siteclock.com/siteclock/web/handlers"
	"siteclock.com/siteclock/web/middlewares"
)

func main() {
	ctx := context.Background()

	cfg, err := devops.LoadServerConfig(ctx)
	if err != nil {
		// Local development: no SSM, everything from env.
		log.Printf("SSM config unavailable (%v), falling back to env", err)
		cfg = devops.ServerConfig{
			DSN:          os.Getenv("DSN"),
			JwtSecret:    os.Getenv("JWT_SECRET"),
			ReportBucket: os.Getenv("REPORT_BUCKET"),
			MaxConns:     30,
		}
	}
	if cfg.DSN == "" {
		log.Fatal("no DSN configured")
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(cfg.JwtSecret)
	if err != nil {
		log.Fatalf("jwt secret is not valid base64: %v", err)
	}

	dm, err := core.New(cfg.DSN, cfg.MaxConns)
	if err != nil {
		log.Fatalf("failed to connect database pool: %v", err)
	}
	dm.LogLevel = core.LogLevelError
	defer dm.Close()

	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	protected := r.Group("/api/siteclock/v1.0")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		protected.POST("/push", handlers.PushHandler(dm))
		protected.POST("/pull", handlers.PullHandler(dm))
		protected.PUT("/days/:id", handlers.UpdateDayHandler(dm))
		protected.GET("/report", handlers.ReportHandler(dm, cfg.ReportBucket))
	}

	r.Run(":8090")
}
