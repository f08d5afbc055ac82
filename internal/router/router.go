package router

import (
	"time"

	"brokenexp/internal/handlers"
	"brokenexp/internal/mapview"
	"brokenexp/internal/metrics"
	"brokenexp/internal/middleware"
	"brokenexp/internal/store"
	"brokenexp/internal/utils"

	"github.com/charmbracelet/log/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries everything the routes need.
type Deps struct {
	Store       *store.Store
	Tokens      *utils.TokenIssuer
	Cache       *utils.TTLCache[any]
	CacheTTL    time.Duration
	Limiter     middleware.Limiter // nil disables the issue rate limit
	MapCenter   mapview.Center
	CORSOrigins []string
	Logger      *log.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(metrics.Middleware())
	r.Use(middleware.LoadUser(d.Store, d.Tokens))

	issueHandler := handlers.NewIssueHandler(d.Store, d.Cache, d.CacheTTL, d.Logger.WithPrefix("issues"))
	toggleHandler := handlers.NewToggleHandler(d.Store, d.Cache)
	commentHandler := handlers.NewCommentHandler(d.Store, d.Cache)
	authHandler := handlers.NewAuthHandler(d.Store, d.Tokens, d.Logger.WithPrefix("auth"))
	profileHandler := handlers.NewProfileHandler(d.Store)
	statsHandler := handlers.NewStatsHandler(d.Store, d.Logger.WithPrefix("stats"))
	mapHandler := handlers.NewMapHandler(d.Store, d.MapCenter)

	// 公共路由 (Public Routes)
	r.GET("/", issueHandler.List)              // 首页 - 问题列表与搜索
	r.GET("/issues/:id", issueHandler.Detail)  // 问题详情
	r.GET("/map", mapHandler.Page)             // 可嵌入地图
	r.GET("/stats", statsHandler.Page)         // 社区统计
	r.GET("/u/:id", profileHandler.Profile)    // 用户主页
	r.GET("/metrics", metrics.Handler())       // Prometheus

	r.GET("/signup", authHandler.ShowSignup)
	r.POST("/signup", authHandler.Signup)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/submit", issueHandler.ShowCreate)
		authorized.POST("/submit", middleware.IssueRateLimit(d.Limiter), issueHandler.Create)
		authorized.POST("/issues/:id/status", issueHandler.Update)
		authorized.POST("/issues/:id/delete", issueHandler.Delete)
		authorized.POST("/issues/:id/comments", commentHandler.Create)
		authorized.POST("/issues/:id/upvote", toggleHandler.Upvote)
		authorized.POST("/issues/:id/bookmark", toggleHandler.Bookmark)
		authorized.POST("/settings", profileHandler.Update)
	}

	api := r.Group("/api")
	if len(d.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = d.CORSOrigins
		cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
		api.Use(cors.New(cfg))
	}
	{
		api.POST("/auth/signup", authHandler.APISignup)
		api.POST("/auth/login", authHandler.APILogin)

		api.GET("/issues", issueHandler.ListJSON)
		api.GET("/issues/search", issueHandler.SearchJSON)
		api.GET("/issues/:id", issueHandler.GetJSON)
		api.GET("/issues/:id/comments", commentHandler.List)
		api.GET("/stats", statsHandler.JSON)
		api.GET("/map/issues", mapHandler.Issues)
		api.GET("/map/center", mapHandler.Center)
		api.GET("/profiles/:id", profileHandler.GetJSON)
	}

	apiAuth := api.Group("")
	apiAuth.Use(middleware.AuthRequired())
	{
		apiAuth.GET("/me", authHandler.Me)
		apiAuth.GET("/me/bookmarks", profileHandler.Bookmarks)
		apiAuth.PATCH("/me/profile", profileHandler.Update)

		apiAuth.POST("/issues", middleware.IssueRateLimit(d.Limiter), issueHandler.Create)
		apiAuth.PATCH("/issues/:id", issueHandler.Update)
		apiAuth.DELETE("/issues/:id", issueHandler.Delete)
		apiAuth.POST("/issues/:id/upvote", toggleHandler.Upvote)
		apiAuth.POST("/issues/:id/bookmark", toggleHandler.Bookmark)
		apiAuth.POST("/issues/:id/comments", commentHandler.Create)
		apiAuth.PATCH("/comments/:cid", commentHandler.Update)
		apiAuth.DELETE("/comments/:cid", commentHandler.Delete)
	}
}
