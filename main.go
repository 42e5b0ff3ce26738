package main

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"
)

// App holds the client's runtime state: the upstream gateway, the client
// sessions and their rate limiters, plus configuration.
type App struct {
	Upstream    *Upstream
	UpstreamURL *url.URL

	Sessions     map[string]*clientSession
	SessionMutex sync.RWMutex

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex

	SessionDir     string
	SessionTimeout time.Duration
	CookieMaxAge   time.Duration
	StaticCacheAge time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	IsProduction bool
	StartTime    time.Time
}

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	logInfo("Starting Hangnimal client in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	upstreamBase := getEnvString("UPSTREAM_URL", "http://localhost:5000")
	upstreamURL, err := url.Parse(upstreamBase)
	if err != nil || upstreamURL.Host == "" {
		logFatal("Invalid UPSTREAM_URL %q: %v", upstreamBase, err)
	}

	app := &App{
		Upstream:       NewUpstream(upstreamBase, getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second)),
		UpstreamURL:    upstreamURL,
		Sessions:       make(map[string]*clientSession),
		LimiterMap:     make(map[string]*rate.Limiter),
		SessionDir:     getEnvString("SESSION_DIR", "data/sessions"),
		SessionTimeout: getEnvDuration("SESSION_TIMEOUT", 2*time.Hour),
		CookieMaxAge:   getEnvDuration("COOKIE_MAX_AGE", 2*time.Hour),
		StaticCacheAge: getEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		IsProduction:   isProduction,
		StartTime:      time.Now(),
	}
	logInfo("Game server upstream: %s", upstreamBase)

	router := app.newRouter()

	go app.cleanupLoop()

	startServer(router)
}

// newRouter wires middleware, templates and routes onto a gin engine.
func (app *App) newRouter() *gin.Engine {
	router := gin.Default()

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"}),
		ginGzip.WithExcludedPaths([]string{"/static/fonts"})))
	router.Use(requestIDMiddleware())

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		app.applyCacheHeaders(c)
	})

	router.LoadHTMLGlob("templates/*.html")
	if dirExists("static") {
		router.Static("/static", "./static")
	}

	router.GET(RouteHome, app.homeHandler)
	router.POST(RouteStart, app.rateLimitMiddleware(), app.startHandler)
	router.POST(RouteReset, app.rateLimitMiddleware(), app.resetHandler)
	router.POST(RouteGuess, app.rateLimitMiddleware(), app.guessHandler)
	router.POST(RouteHint, app.rateLimitMiddleware(), app.hintHandler)
	router.POST(RouteImageFailed, app.imageFailedHandler)
	router.GET(RouteGameState, app.gameStateHandler)
	router.GET("/healthz", app.healthzHandler)

	return router
}

// applyCacheHeaders keeps game pages out of caches; only static assets
// may be cached, and only in production.
func (app *App) applyCacheHeaders(c *gin.Context) {
	if app.IsProduction && strings.HasPrefix(c.Request.URL.Path, "/static/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(app.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}

// cleanupLoop periodically sweeps idle sessions and stale binding files.
func (app *App) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		app.sweepSessions(app.SessionTimeout)
		if err := app.cleanupSessionBindings(app.SessionTimeout); err != nil {
			logWarn("Session binding cleanup failed: %v", err)
		}
	}
}

func startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Client starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
