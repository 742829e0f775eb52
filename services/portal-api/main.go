package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/case-framework/records-portal/pkg/apihelpers"
	"github.com/case-framework/records-portal/services/portal-api/apihandlers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Start webserver
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length"},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add handlers
	router.GET("/", apihandlers.HealthCheckHandle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	v1Root := router.Group("/v1")

	v1APIHandlers := apihandlers.NewHTTPHandler(
		recordsClient,
		conf.UserJWTConfig.SignKey,
		apihandlers.SessionConfig{
			MaxSessions:  conf.SessionConfigs.MaxSessions,
			IdleTimeout:  conf.SessionConfigs.IdleTimeout,
			PollInterval: conf.SessionConfigs.PollInterval,
			ContentType:  conf.SessionConfigs.ContentType,
		},
	)
	v1APIHandlers.AddAuthAPI(v1Root)
	v1APIHandlers.AddEditorAPI(v1Root)
	v1APIHandlers.AddQuestionnaireAPI(v1Root)

	if conf.GinConfig.DebugMode {
		apihelpers.WriteRoutesToFile(router, "portal-api-routes.txt")
	}

	server := &http.Server{
		Addr:    ":" + conf.GinConfig.Port,
		Handler: router,
	}
	if conf.GinConfig.MTLS.Use {
		// Create tls config for mutual TLS
		tlsConfig, err := apihelpers.LoadTLSConfig(conf.GinConfig.MTLS.CertificatePaths)
		if err != nil {
			slog.Error("Error loading TLS config.", slog.String("error", err.Error()))
			return
		}
		server.TLSConfig = tlsConfig
	}

	go func() {
		slog.Info("Starting Portal API on port " + conf.GinConfig.Port)
		var err error
		if conf.GinConfig.MTLS.Use {
			err = server.ListenAndServeTLS(conf.GinConfig.MTLS.CertificatePaths.ServerCertPath, conf.GinConfig.MTLS.CertificatePaths.ServerKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Exited Portal API", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down Portal API")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Error during shutdown", slog.String("error", err.Error()))
	}
	// open edit sessions give their locks back
	v1APIHandlers.Shutdown()
}
