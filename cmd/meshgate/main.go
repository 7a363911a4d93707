package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/meshboard/meshgate/internal/config"
	"github.com/meshboard/meshgate/internal/db"
	"github.com/meshboard/meshgate/internal/handler"
	"github.com/meshboard/meshgate/internal/job"
	"github.com/meshboard/meshgate/internal/linkcache"
	"github.com/meshboard/meshgate/internal/middleware"
	"github.com/meshboard/meshgate/internal/pkg/jwt"
	"github.com/meshboard/meshgate/internal/pkg/tokencrypt"
	"github.com/meshboard/meshgate/internal/repo"
	"github.com/meshboard/meshgate/internal/schedule"
	"github.com/meshboard/meshgate/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "meshgate",
		Short: "meshgate trust and sharing gateway",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run meshgate server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	var tokenSub, tokenTenant, tokenRoles, tokenSecret string
	var tokenTTL time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "mint a dev user JWT",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenSub == "" || tokenSecret == "" {
				return fmt.Errorf("--sub and --secret are required")
			}
			var roles []string
			if tokenRoles != "" {
				roles = strings.Split(tokenRoles, ",")
			}
			token, err := jwt.Mint(tokenSub, tokenTenant, roles, []byte(tokenSecret), tokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tokenSub, "sub", "", "user id claim")
	tokenCmd.Flags().StringVar(&tokenTenant, "tenant", "", "tenant id claim")
	tokenCmd.Flags().StringVar(&tokenRoles, "roles", "", "comma separated roles claim")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "jwt signing secret")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")

	rootCmd.AddCommand(runCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info("starting server", zap.Int("port", cfg.Port))

	tokenRepo := repo.NewShareTokenRepo(conn)
	linkRepo := repo.NewLinkRepo(conn)
	roleRepo := repo.NewTenantRoleRepo(conn)
	directoryRepo := repo.NewDirectoryRepo(conn)

	codec, err := tokencrypt.New(cfg.TokenSecret)
	if err != nil {
		return fmt.Errorf("init token codec: %w", err)
	}
	var links service.LinkStore = linkRepo
	if !cfg.LinkCache.Disabled {
		links = linkcache.WrapLRU(links, cfg.LinkCache.Size, time.Duration(cfg.LinkCache.TTLSecs)*time.Second)
	}
	shareService := service.NewShareService(
		tokenRepo, links, codec, directoryRepo,
		cfg.ShareBaseURL, time.Duration(cfg.ShareTTLSecs)*time.Second,
	)
	roleService := service.NewRoleService(roleRepo)

	deps := handler.RouterDeps{
		Shares: handler.NewShareHandler(shareService),
		Roles:  handler.NewRoleHandler(roleService),
		Gate: middleware.GateConfig{
			MeshSecret: cfg.MeshSecret,
			BotSecret:  cfg.BotSecret,
			JWTSecret:  []byte(cfg.JWTSecret),
		},
		RedeemWindow: time.Duration(cfg.RedeemLimitMS) * time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.New()
	cleanup := job.NewLinkCleanupJob(linkRepo, tokenRepo, time.Duration(cfg.Cleanup.RetentionDays)*24*time.Hour)
	if err := scheduler.AddJob(cleanup, cfg.Cleanup.Spec); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
