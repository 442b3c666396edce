package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suPer8Hu/tcg-chat/internal/common"
	"github.com/suPer8Hu/tcg-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/tcg-chat/internal/httpapi/middleware"
)

// NewRouter wires every route. counter may be nil, which disables rate limiting.
func NewRouter(h *handlers.Handler, counter middleware.Counter) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(h.Log))
	r.Use(middleware.Recovery(h.Log))
	r.Use(middleware.Metrics())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/users", h.CreateUser)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(h.Cfg.JWTSecret))
	authGroup.GET("/user", h.Me)

	limited := middleware.RateLimit(counter, h.Cfg.ChatRateLimit, h.Log)
	authGroup.POST("/chat", limited, h.Chat)
	authGroup.POST("/chat/async", limited, h.SubmitChatAsync)
	authGroup.GET("/chat/jobs/:job_id", h.GetChatJob)
	authGroup.GET("/chat/messages", h.ListMessages)
	authGroup.GET("/chat/conversations", h.ListConversations)
	authGroup.POST("/chat/conversations", h.CreateConversation)
	authGroup.DELETE("/chat/conversations/:id", h.DeleteConversation)
	return r
}
