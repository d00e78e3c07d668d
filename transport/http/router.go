package http

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/cleos/ports"
)

// SetupRouter sets up the Gin router
func SetupRouter(auth ports.Authenticator, tokenizer ports.Tokenizer, logger watermill.LoggerAdapter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := NewAuthHandlers(auth, tokenizer, logger)

	// Auth routes
	group := router.Group("/auth")
	{
		group.GET("/info", handlers.Info)
		group.POST("/login", handlers.Login)
		group.POST("/logout", AuthMiddleware(tokenizer), handlers.Logout)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(tokenizer))
	{
		api.GET("/me", handlers.Me)
		api.POST("/sign", handlers.Sign)
		api.POST("/sign-arbitrary", handlers.SignArbitrary)
		api.POST("/verify-key-ownership", handlers.VerifyKeyOwnership)
	}

	return router
}
