// internal/api/routes.go
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"demand-radar/internal/common/config"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, handler *Handler, cfg config.ServerConfig) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	if cfg.AuthEnabled() {
		api.Use(AuthMiddleware(cfg.JWTSecret))
	}

	// Conversation ingestion
	conversations := api.Group("/conversations")
	{
		conversations.POST("", handler.CreateConversation)
		conversations.GET("", handler.ListConversations)
		conversations.GET("/:id", handler.GetConversation)
		conversations.DELETE("/:id", handler.DeleteConversation)
	}

	// Topics and per-topic reports
	topics := api.Group("/topics")
	{
		topics.POST("", handler.CreateTopic)
		topics.GET("", handler.ListTopics)
		topics.GET("/:id", handler.GetTopic)
		topics.DELETE("/:id", handler.DeleteTopic)
		topics.GET("/:id/report", handler.TopicReport)
	}

	// Demand signal collection
	demand := api.Group("/demand")
	{
		demand.POST("/collect", handler.CollectDemand)
		demand.GET("/topic/:id", handler.GetTopicDemand)
	}

	// Business ideas, scoring and ranking
	ideas := api.Group("/ideas")
	{
		ideas.POST("", handler.CreateIdea)
		ideas.GET("", handler.ListIdeas)
		ideas.GET("/search", handler.SearchIdeas)
		ideas.POST("/rank", handler.RankIdeas)
		ideas.GET("/:id", handler.GetIdea)
		ideas.PUT("/:id", handler.UpdateIdea)
		ideas.DELETE("/:id", handler.DeleteIdea)
		ideas.POST("/:id/score", handler.ScoreIdea)
	}

	// Evidence links
	evidence := api.Group("/evidence")
	{
		evidence.POST("", handler.AddEvidence)
		evidence.GET("/idea/:id", handler.ListIdeaEvidence)
		evidence.DELETE("/:id", handler.DeleteEvidence)
	}

	// Scoring weight configuration
	scoring := api.Group("/scoring")
	{
		scoring.GET("/weights", handler.GetWeights)
		scoring.PUT("/weights", handler.UpdateWeights)
	}

	// Source catalog and feed miner
	api.GET("/sources", handler.ListSources)
	api.POST("/miner/run", handler.RunMiner)

	// Pipeline statistics
	api.GET("/stats", handler.GetStats)
}
