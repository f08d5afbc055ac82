package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"brokenexp/internal/config"
	"brokenexp/internal/db"
	"brokenexp/internal/handlers"
	"brokenexp/internal/mapview"
	"brokenexp/internal/metrics"
	"brokenexp/internal/router"
	"brokenexp/internal/services"
	"brokenexp/internal/store"
	"brokenexp/internal/utils"

	"github.com/charmbracelet/log/v2"
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	logger := log.Default().WithPrefix("brokenexp")

	cfg, foundEnv, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	if !foundEnv {
		logger.Info("No .env file found, reading config from environment")
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	// Initialize Database
	conn, err := db.Open(cfg.DatabaseURL, logger.WithPrefix("db"))
	if err != nil {
		logger.Fatal("open database", "err", err)
	}
	st := store.New(conn)

	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatal("register validators", "err", err)
	}

	// 积分与徽章定时任务
	job := services.NewReputationJob(st, logger.WithPrefix("reputation"))
	job.OnRun(metrics.ReputationRun)
	scheduler, err := job.Schedule(cfg.ReputationCron)
	if err != nil {
		logger.Fatal("schedule reputation job", "spec", cfg.ReputationCron, "err", err)
	}
	defer scheduler.Stop()

	// 服务端页面缓存
	cache, err := utils.NewTTLCache[any](500)
	if err != nil {
		logger.Fatal("create page cache", "err", err)
	}

	deps := router.Deps{
		Store:       st,
		Tokens:      utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Cache:       cache,
		CacheTTL:    cfg.FeedCacheTTL,
		MapCenter:   mapview.Center{Lat: cfg.MapCenterLat, Lng: cfg.MapCenterLng, Zoom: cfg.MapZoom},
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	}
	if cfg.RedisAddr != "" {
		limiter := services.NewIssueLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.IssueDailyLimit)
		if err := limiter.Ping(context.Background()); err != nil {
			logger.Warn("redis unreachable, issue rate limit fails open", "addr", cfg.RedisAddr, "err", err)
		}
		defer limiter.Close()
		deps.Limiter = limiter
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger.WithPrefix("http")))

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{Path: "/", MaxAge: 86400 * 30, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("brokenexp_session", sessionStore))

	r.HTMLRender = loadTemplates(cfg.TemplatesDir)
	r.Static("/static", cfg.StaticDir)

	router.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "site", cfg.SiteURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

// requestLogger logs one line per request; handler errors are attached.
func requestLogger(l *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start).Round(time.Microsecond),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "err", c.Errors.String())
			l.Warn("request", kv...)
			return
		}
		l.Debug("request", kv...)
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(components)+1)
		files = append(files, layouts...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	funcMap := template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t time.Time) string {
			return utils.TimeAgo(t)
		},
		"label": func(v any) string {
			return utils.Label(fmt.Sprint(v))
		},
		"initials":  utils.Initials,
		"daysSince": utils.GetDaysSinceJoined,
		"str": func(v any) string {
			return fmt.Sprint(v)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"safeJS": func(s string) template.JS {
			return template.JS(s)
		},
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
	}

	views := []string{
		"issue/list.html",
		"issue/detail.html",
		"issue/new.html",
		"auth/login.html",
		"auth/signup.html",
		"user/profile.html",
		"stats.html",
		"error.html",
	}
	for _, v := range views {
		r.AddFromFilesFuncs(v, funcMap, assemble(templatesDir+"/views/"+v)...)
	}
	// 地图页面需要独立嵌入，不使用公共布局
	r.AddFromFilesFuncs("map.html", funcMap, templatesDir+"/views/map.html")

	return r
}
