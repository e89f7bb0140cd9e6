package planet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/planetctl/internal/auth"
	"github.com/danmuck/planetctl/internal/config"
	"github.com/danmuck/planetctl/internal/gate"
	"github.com/danmuck/planetctl/internal/noise"
	"github.com/danmuck/planetctl/internal/observability"
	"github.com/danmuck/planetctl/internal/output"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const adminNode = "planetctl"

var startedAt = time.Now()

// AdminRouter exposes the patch protocol and render results over HTTP. When
// an admin token is configured the POST routes require it as a bearer token.
func (s *Service) AdminRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(adminNode))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": adminNode,
			"renders": s.RenderCount(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Snapshot())
	})

	mutate := r.Group("/")
	if s.cfg.AdminToken != "" {
		mutate.Use(auth.Require(auth.StaticToken{Token: s.cfg.AdminToken}))
	}

	mutate.POST("/patch", func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPatchLine))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.ApplyPatch(body); err != nil {
			c.JSON(patchStatus(err), gin.H{"error": err.Error()})
			return
		}
		s.respondRender(c)
	})

	mutate.POST("/reset", func(c *gin.Context) {
		if ns := c.Query("namespace"); ns != "" {
			s.Invalidate(ns)
		} else {
			s.Reset(c.Request.Context())
		}
		s.respondRender(c)
	})

	mutate.POST("/render", func(c *gin.Context) {
		s.respondRender(c)
	})

	r.GET("/image", func(c *gin.Context) {
		img, err := s.LastImage()
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		var buf bytes.Buffer
		if err := output.Encode(&buf, img, output.FormatPNG); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	})

	return r
}

func (s *Service) respondRender(c *gin.Context) {
	res, err := s.Render(c.Request.Context())
	if err != nil {
		c.JSON(renderStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// patchStatus separates malformed patches from well-formed ones that name
// something unknown.
func patchStatus(err error) int {
	if errors.Is(err, gate.ErrUnknownPreset) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func renderStatus(err error) int {
	switch {
	case errors.Is(err, noise.ErrUnknownMethod),
		errors.Is(err, noise.ErrInvalidParams),
		errors.Is(err, gate.ErrUnknownPreset),
		errors.Is(err, config.ErrInvalidImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, output.ErrWrite):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) serveAdmin(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.AdminRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("admin listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
