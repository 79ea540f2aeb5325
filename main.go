package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/adityakmrtiwari/CliNote/handlers"
	"github.com/adityakmrtiwari/CliNote/internal/config"
	"github.com/adityakmrtiwari/CliNote/internal/database"
	"github.com/adityakmrtiwari/CliNote/internal/generation"
	notehandler "github.com/adityakmrtiwari/CliNote/internal/note/handler"
	noterepo "github.com/adityakmrtiwari/CliNote/internal/note/repository"
	noteservice "github.com/adityakmrtiwari/CliNote/internal/note/service"
	"github.com/adityakmrtiwari/CliNote/internal/oidc"
	patienthandler "github.com/adityakmrtiwari/CliNote/internal/patient/handler"
	patientrepo "github.com/adityakmrtiwari/CliNote/internal/patient/repository"
	patientservice "github.com/adityakmrtiwari/CliNote/internal/patient/service"
	"github.com/adityakmrtiwari/CliNote/internal/sessions"
	"github.com/adityakmrtiwari/CliNote/internal/storage"
	"github.com/adityakmrtiwari/CliNote/internal/tokens"
	"github.com/adityakmrtiwari/CliNote/internal/users"
	"github.com/adityakmrtiwari/CliNote/pkg/ai"
	"github.com/adityakmrtiwari/CliNote/pkg/logger"
	"github.com/adityakmrtiwari/CliNote/pkg/metrics"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
	"github.com/adityakmrtiwari/CliNote/pkg/response"
	"github.com/adityakmrtiwari/CliNote/pkg/retry"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: env=%s keycloak=%v redis=%v minio=%v", cfg.Server.Environment, cfg.Keycloak.URL != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	response.SetProduction(cfg.Server.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigin))

	// Redis backs the token blacklist, sessions and the shared rate limiter; all optional.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	// Mounted on the public auth routes (keyed by IP) and after auth on the rest (keyed by user).
	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limit = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			limit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)

	usersRepo, err := users.NewMongoUserRepository(ctx, db.Collection("users"))
	if err != nil {
		logger.Fatalf("users repository: %v", err)
	}
	userSvc := users.NewService(usersRepo)

	var sessionsSvc *sessions.Service
	var revoked sessions.Blacklist
	if rdb != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(rdb, sessions.DefaultSessionPrefix))
		revoked = sessions.NewRedisBlacklist(rdb, sessions.DefaultRevokedPrefix)
		logger.Infof("using Redis for sessions and revoked tokens")
	} else {
		srepo, err := sessions.NewMongoRepository(ctx, db.Collection("sessions"))
		if err != nil {
			logger.Fatalf("sessions repository: %v", err)
		}
		sessionsSvc = sessions.NewService(srepo)
		mbl, err := sessions.NewMongoBlacklist(ctx, db.Collection("revoked_tokens"))
		if err != nil {
			logger.Fatalf("revoked tokens: %v", err)
		}
		revoked = mbl
	}

	pRepo, err := patientrepo.NewMongoRepo(ctx, db.Collection("patients"))
	if err != nil {
		logger.Fatalf("patients repository: %v", err)
	}
	nRepo, err := noterepo.NewMongoRepo(ctx, db.Collection("notes"))
	if err != nil {
		logger.Fatalf("notes repository: %v", err)
	}
	patientSvc := patientservice.NewService(pRepo)
	noteSvc := noteservice.NewService(nRepo, patientSvc)
	patientSvc.SetNotes(noteSvc)

	// Local JWTs first; Keycloak tokens are mapped onto local accounts.
	chain := middleware.ChainVerifier{tokens.NewVerifier(cfg.JWT.Secret)}
	var oidcVerifier middleware.Verifier
	if issuer := oidc.Issuer(cfg.Keycloak); issuer != "" {
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			oidcVerifier = ver
		}
	}
	if oidcVerifier == nil && strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		oidcVerifier = oidc.NewInsecureVerifier()
	}
	if oidcVerifier != nil {
		chain = append(chain, &oidc.LocalUserVerifier{Inner: oidcVerifier, Users: userSvc})
	}
	requireAuth := middleware.AuthMiddleware(chain, revoked)

	var audioStore *storage.MinIOStorage
	if cfg.MinIO.Endpoint != "" {
		audioStore, err = storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("audio storage unavailable: %v", err)
			audioStore = nil
		}
	}

	var genSvc *generation.Service
	if cfg.AI.APIKey != "" {
		opts := []ai.GeminiOption{ai.WithTimeout(cfg.AI.Timeout)}
		if cfg.AI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.AI.BaseURL))
		}
		gem, err := ai.NewGeminiClient(cfg.AI.APIKey, cfg.AI.Model, opts...)
		if err != nil {
			logger.Warnf("AI client unavailable: %v", err)
		} else {
			genSvc = generation.NewService(gem, noteSvc, patientSvc, retry.Policy{Attempts: cfg.AI.RetryAttempts, Delay: cfg.AI.RetryDelay})
			logger.Infof("AI generation enabled: model=%s", gem.Model())
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies respond
	r.GET("/ready", func(c *gin.Context) {
		rctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		deps := map[string]bool{}
		deps["mongo"] = client.Ping(rctx, nil) == nil
		ready := deps["mongo"]
		if cfg.Redis.Host != "" {
			deps["redis"] = rdb != nil && rdb.Ping(rctx).Err() == nil
			ready = ready && deps["redis"]
		}
		if cfg.MinIO.Endpoint != "" {
			deps["storage"] = audioStore != nil && audioStore.Ping(rctx) == nil
			ready = ready && deps["storage"]
		}
		if cfg.Keycloak.URL != "" {
			deps["oidc"] = oidcVerifier != nil
			ready = ready && deps["oidc"]
		}
		deps["ai"] = genSvc != nil

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	api := r.Group("/api")
	public := api.Group("")
	public.Use(limit)
	handlers.NewAuthHandler(cfg, userSvc, sessionsSvc, revoked).Register(public, requireAuth)

	protected := api.Group("")
	protected.Use(requireAuth, limit)
	patienthandler.RegisterPatientRoutes(protected, patientSvc)
	notehandler.RegisterNoteRoutes(protected, noteSvc, patientSvc)
	if genSvc != nil {
		handlers.NewAIHandler(genSvc).Register(protected)
	} else {
		logger.Warnf("AI routes not registered because GEMINI_API_KEY is not configured")
	}
	if audioStore != nil {
		handlers.NewAudioHandler(audioStore).Register(protected)
	} else {
		logger.Warnf("audio upload not registered because MinIO is not configured")
	}

	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting CliNote API on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
