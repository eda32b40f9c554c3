package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/core/auth"
	"github.com/gbi46/photo-share/internal/core/cache"
	"github.com/gbi46/photo-share/internal/core/config"
	"github.com/gbi46/photo-share/internal/core/database"
	"github.com/gbi46/photo-share/internal/core/logger"
	"github.com/gbi46/photo-share/internal/core/server"
	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/repo"
	"github.com/gbi46/photo-share/internal/service"
	"github.com/gbi46/photo-share/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// 自动迁移
	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(
			&domain.Role{}, &domain.Permission{},
			&domain.User{}, &domain.RefreshToken{},
			&domain.Post{}, &domain.Tag{}, &domain.Comment{}, &domain.PostRating{},
		); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// JWT（访问/刷新双密钥）
	jwter := &auth.JWTer{
		Secret:        []byte(cfg.JWT.Secret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		Issuer:        cfg.JWT.Issuer,
		AccessTTL:     time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		RefreshTTL:    time.Duration(cfg.JWT.RefreshTokenTTLDay) * 24 * time.Hour,
	}

	// 权限缓存（可关；关了走直查）
	var permCache *authz.PermCache
	if cfg.Auth.PermCacheEnabled {
		rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		permCache = authz.NewPermCache(rc, time.Duration(cfg.Auth.PermCacheTTLSec)*time.Second)
		log.Info("perm cache enabled", zap.String("redis", cfg.Redis.Addr))
	}

	// 授权引擎 + 角色初始化
	engine := authz.NewEngine(db, permCache)
	boot := authz.NewBootstrap(db, log, permCache)
	ctx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	for _, role := range []string{authz.RoleUser, authz.RoleModerator, authz.RoleAdmin} {
		if _, err := boot.EnsureRole(ctx, role); err != nil {
			log.Fatal("role bootstrap failed", zap.String("role", role), zap.Error(err))
		}
	}
	cancelBoot()
	log.Info("roles bootstrapped")

	// 仓储 + 服务
	userRepo := repo.NewUserRepo(db)
	tokenRepo := repo.NewTokenRepo(db)
	postRepo := repo.NewPostRepo(db)
	commentRepo := repo.NewCommentRepo(db)

	authSvc := service.NewAuthService(db, userRepo, tokenRepo, boot, jwter, service.AuthOptions{
		DefaultRole:       cfg.Auth.DefaultRole,
		GrantBaselineRole: cfg.Auth.GrantBaselineRole,
	}, log)
	userSvc := service.NewUserService(userRepo)
	postSvc := service.NewPostService(postRepo, service.PostOptions{
		MaxTags: cfg.Posts.MaxTags,
		BaseURL: cfg.App.BaseURL,
	})
	commentSvc := service.NewCommentService(commentRepo, postRepo)

	// 路由（用户端）
	r := router.NewAPIEngine(router.Deps{
		Log:      log,
		JWTer:    jwter,
		Users:    userRepo,
		Engine:   engine,
		Auth:     authSvc,
		Accounts: userSvc,
		Posts:    postSvc,
		Comments: commentSvc,
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("user api start FAILED", zap.Error(err))
		}
	}()
	log.Info("user api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Info("user api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
