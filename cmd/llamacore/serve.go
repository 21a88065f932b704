package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ollamacore/llamacore/archive"
	"github.com/ollamacore/llamacore/config"
	"github.com/ollamacore/llamacore/internal/httpapi"
	"github.com/ollamacore/llamacore/kernel"
	"github.com/ollamacore/llamacore/model"
	"github.com/ollamacore/llamacore/session"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve /api/generate over HTTP",
		RunE: func(_ *cobra.Command, _ []string) error {
			rt := runtimeConfig()

			cfg, err := config.LoadModelConfig(rt.ModelPath)
			if err != nil {
				return err
			}
			acc, err := archive.OpenSafetensors(rt.ParamsPath)
			if err != nil {
				return fmt.Errorf("llamacore: open %s: %w", rt.ParamsPath, err)
			}

			var engine *gin.Engine
			switch cfg.DType {
			case model.DTypeF32:
				engine, err = buildEngine[float32](acc, cfg, rt.MaxConcurrent)
			case model.DTypeBF16:
				engine, err = buildEngine[kernel.BF16](acc, cfg, rt.MaxConcurrent)
			default:
				err = fmt.Errorf("llamacore: unsupported dtype %v", cfg.DType)
			}
			if err != nil {
				return err
			}

			srv := &http.Server{Addr: rt.ListenAddr, Handler: engine}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				<-ctx.Done()
				slog.Info("llamacore: shutting down")
				_ = srv.Shutdown(context.Background())
			}()

			slog.Info("llamacore: listening", "addr", rt.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}

func buildEngine[T kernel.Weight](acc archive.Accessor, cfg model.Config, maxConcurrent int64) (*gin.Engine, error) {
	params, err := model.Load[T](acc, cfg)
	if err != nil {
		return nil, err
	}
	m, err := model.New(cfg, params)
	if err != nil {
		return nil, err
	}

	pool := session.NewPool(m, maxConcurrent)
	srv := httpapi.New(pool)

	r := gin.New()
	r.Use(gin.Recovery())
	srv.Routes(r)
	return r, nil
}
