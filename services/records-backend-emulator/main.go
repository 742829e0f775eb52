package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/case-framework/records-portal/pkg/apihelpers"
	"github.com/case-framework/records-portal/services/records-backend-emulator/apihandlers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	defer func() {
		if err := recordsDBService.Close(); err != nil {
			slog.Error("Error closing Records DB", slog.String("error", err.Error()))
		}
	}()

	seedData()

	// Start webserver
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length", "Api-Key"},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add handlers
	router.GET("/", apihandlers.HealthCheckHandle)
	v1Root := router.Group("/v1")

	v1APIHandlers := apihandlers.NewHTTPHandler(
		recordsDBService,
		conf.UserJWTConfig.SignKey,
		conf.UserJWTConfig.ExpiresIn,
		conf.DocumentConfigs.LockTTL,
		conf.FilestorePath,
		conf.DocumentConfigs.MaxUploadSize,
		conf.DocumentConfigs.AllowedContentTypes,
		conf.AdminAPIKeys,
	)
	v1APIHandlers.AddAuthAPI(v1Root)
	v1APIHandlers.AddDocumentsAPI(v1Root)
	v1APIHandlers.AddQuestionnairesAPI(v1Root)
	v1APIHandlers.AddAdminAPI(v1Root)

	if conf.GinConfig.DebugMode {
		apihelpers.WriteRoutesToFile(router, "records-backend-emulator-routes.txt")
	}

	// Start the server
	slog.Info("Starting records backend emulator on port " + conf.GinConfig.Port)
	if !conf.GinConfig.MTLS.Use {
		err := router.Run(":" + conf.GinConfig.Port)
		if err != nil {
			slog.Error("Exited records backend emulator", slog.String("error", err.Error()))
			return
		}
	} else {
		// Create tls config for mutual TLS
		tlsConfig, err := apihelpers.LoadTLSConfig(conf.GinConfig.MTLS.CertificatePaths)
		if err != nil {
			slog.Error("Error loading TLS config.", slog.String("error", err.Error()))
			return
		}

		server := &http.Server{
			Addr:      ":" + conf.GinConfig.Port,
			Handler:   router,
			TLSConfig: tlsConfig,
		}

		err = server.ListenAndServeTLS(conf.GinConfig.MTLS.CertificatePaths.ServerCertPath, conf.GinConfig.MTLS.CertificatePaths.ServerKeyPath)
		if err != nil {
			slog.Error("Exited records backend emulator", slog.String("error", err.Error()))
			return
		}
	}
}
