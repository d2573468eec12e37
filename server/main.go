// Command server serves the browser page and data artifacts for local
// development, with caching disabled.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lapswim/lapswim/internal/artifact"
	"github.com/lapswim/lapswim/internal/config"
	"github.com/lapswim/lapswim/internal/schedule"
	"github.com/lapswim/lapswim/internal/zlog"
	"github.com/lapswim/lapswim/schema"
)

var (
	addr       = flag.String("addr", "localhost:8000", "listen address")
	root       = flag.String("root", ".", "directory to serve")
	configFile = flag.String("config", "", "config file (default ./lapswim.yaml if it exists)")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}

	flush, err := zlog.Setup(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer flush()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    *addr,
		Handler: newRouter(*root, filepath.Join(*root, cfg.DataDir)),
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()

	slog.Info("serving", "url", "http://"+*addr+"/", "root", *root)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

var sources = []string{"classic", "y360"}

func newRouter(root, dataDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(noCache())

	r.GET("/healthz", health(dataDir))
	r.GET("/api/schedule/:source", scheduleHandler(dataDir))

	fs := http.FileServer(http.Dir(root))
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.AbortWithStatus(http.StatusMethodNotAllowed)
			return
		}
		fs.ServeHTTP(c.Writer, c.Request)
	})
	return r
}

// noCache prevents the browser from caching the page or the data, so edits
// show up on reload.
func noCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// scheduleHandler serves a schedule document narrowed to the branches in the
// comma-separated branches query parameter, like the page's branch selector.
func scheduleHandler(dataDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		source := c.Param("source")
		if !slices.Contains(sources, source) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown source"})
			return
		}
		var doc schema.Document
		if err := artifact.ReadJSON(filepath.Join(dataDir, source+".json"), &doc); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				c.JSON(http.StatusNotFound, gin.H{"error": "schedule not generated"})
				return
			}
			slog.Error("failed to read schedule", "source", source, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read schedule"})
			return
		}
		var keys []string
		if v := c.Query("branches"); v != "" {
			keys = strings.Split(v, ",")
		}
		c.JSON(http.StatusOK, schedule.FilterBranches(&doc, keys))
	}
}

// health reports when each schedule artifact was generated.
func health(dataDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		generated := map[string]string{}
		for _, name := range sources {
			var doc schema.Document
			if err := artifact.ReadJSON(filepath.Join(dataDir, name+".json"), &doc); err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					slog.Warn("failed to read schedule", "source", name, "error", err)
				}
				continue
			}
			generated[name] = doc.GeneratedAt
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"schedules": generated,
		})
	}
}
