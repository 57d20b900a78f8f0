package cmd

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/database"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/handlers"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/middleware"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Mira backend server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	database.Connect(cfg)
	database.Migrate()
	database.ConnectRedis(cfg)

	responder, err := services.NewMiraResponder(cfg)
	if err != nil {
		return err
	}

	r := buildRouter(cfg, responder)

	log.Info().Str("port", cfg.Port).Msg("server starting")
	return r.Run(":" + cfg.Port)
}

func buildRouter(cfg *config.Config, responder services.Responder) *gin.Engine {
	sessionsHandler := handlers.NewSessionsHandler(cfg)
	chatHandler := handlers.NewChatHandler(cfg, responder)
	stateHandler := handlers.NewStateHandler(cfg)
	syncHandler := handlers.NewSyncHandler(cfg)

	r := gin.Default()
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.SecurityHeaders())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/sessions", sessionsHandler.List)
		api.POST("/sessions", sessionsHandler.Create)
		api.DELETE("/sessions/:id", sessionsHandler.Delete)
		api.GET("/sessions/:id/messages", sessionsHandler.Messages)

		api.POST("/chat", chatHandler.Send)

		api.GET("/state", stateHandler.Get)
		api.PUT("/state", stateHandler.Save)
	}

	r.GET("/ws/chat/:id", chatHandler.HandleWebSocket)
	r.GET("/ws/sync", syncHandler.HandleWebSocket)

	return r
}
