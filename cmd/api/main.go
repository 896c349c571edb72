package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presence/internal/auth"
	"presence/internal/config"
	"presence/internal/httpmiddleware"
	"presence/internal/metrics"
	"presence/internal/presence"
	"presence/internal/queue"
	"presence/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "presence:scans")
	}

	repo := presence.NewRepository(db.Client)
	if err := repo.Migrate(context.Background()); err != nil {
		log.Printf("warning: migrate failed: %v", err)
	}
	svc := presence.NewService(repo, repo, cfg.Boundary(), nil, cfg.OpTimeout)
	ctx := context.Background()

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// Scan stations register themselves and receive vigil tokens. A request
	// carrying the configured setup key gets an admin token instead.
	r.POST("/v1/stations/register", func(c *gin.Context) {
		var req struct {
			StationID string `json:"station_id" binding:"required"`
			AdminKey  string `json:"admin_key"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		role := auth.RoleVigil
		if req.AdminKey != "" {
			if cfg.AdminSetupKey == "" || req.AdminKey != cfg.AdminSetupKey {
				c.JSON(http.StatusForbidden, gin.H{"error": "bad admin key"})
				return
			}
			role = auth.RoleAdmin
		}

		if err := repo.UpsertStation(c.Request.Context(), req.StationID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(req.StationID, role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		_ = repo.SaveRefreshToken(c.Request.Context(), req.StationID, tokens.RefreshToken, tokens.RefreshExp)

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
			"role":          role,
		})
	})

	vigil := r.Group("/v1", auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleVigil))

	vigil.POST("/scans", func(c *gin.Context) {
		var req struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rec, err := svc.SubmitScan(c.Request.Context(), req.Code)
		if err != nil {
			metrics.ScanFailures.WithLabelValues(failReason(err)).Inc()
			c.JSON(errStatus(err), gin.H{"error": userMessage(err)})
			return
		}
		metrics.ScansTotal.WithLabelValues(string(rec.Status)).Inc()

		if err := q.Publish(ctx, queue.Message{Type: "scan", Body: []byte(rec.ID)}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusCreated, rec)
	})

	admin := r.Group("/v1", auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleAdmin))

	admin.GET("/presences", func(c *gin.Context) {
		f, err := filterFromQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		recs, err := svc.ListPresences(c.Request.Context(), f)
		if err != nil {
			metrics.QueryFailures.WithLabelValues(failReason(err)).Inc()
			c.JSON(errStatus(err), gin.H{"error": userMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"presences": recs})
	})

	admin.GET("/learners", func(c *gin.Context) {
		learners, err := repo.ListLearners(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"learners": learners})
	})

	admin.POST("/learners", func(c *gin.Context) {
		var req struct {
			FirstName string `json:"first_name" binding:"required"`
			LastName  string `json:"last_name" binding:"required"`
			Cohort    string `json:"cohort"`
			PhotoURL  string `json:"photo_url"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		learner, err := repo.CreateLearner(c.Request.Context(), presence.Learner{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Cohort:    req.Cohort,
			PhotoURL:  req.PhotoURL,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, learner)
	})

	admin.GET("/learners/:id/summary", func(c *gin.Context) {
		sum, err := svc.LearnerSummary(c.Request.Context(), c.Param("id"))
		if err != nil {
			metrics.QueryFailures.WithLabelValues(failReason(err)).Inc()
			c.JSON(errStatus(err), gin.H{"error": userMessage(err)})
			return
		}
		c.JSON(http.StatusOK, sum)
	})

	admin.GET("/learners/:id/records", func(c *gin.Context) {
		recs, err := svc.LearnerRecords(c.Request.Context(), c.Param("id"))
		if err != nil {
			metrics.QueryFailures.WithLabelValues(failReason(err)).Inc()
			c.JSON(errStatus(err), gin.H{"error": userMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": recs})
	})

	// Worker-maintained counters; the listing endpoints never read these.
	admin.GET("/stats/daily", func(c *gin.Context) {
		day := c.Query("date")
		if day == "" {
			day = time.Now().UTC().Format("2006-01-02")
		}
		if _, err := time.Parse("2006-01-02", day); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		counts, err := redisClient.DailyCounts(c.Request.Context(), day)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "counter store unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"date": day, "counts": counts})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// filterFromQuery reads the optional from/to/status/cohort/limit/offset
// query params. Timestamps accept RFC3339 or a bare date; a bare date on
// "to" means end of that day.
func filterFromQuery(c *gin.Context) (presence.Filter, error) {
	var f presence.Filter
	if v := c.Query("from"); v != "" {
		t, _, err := parseTimeParam(v)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, dateOnly, err := parseTimeParam(v)
		if err != nil {
			return f, err
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Second)
		}
		f.To = &t
	}
	f.Status = presence.Status(c.Query("status"))
	f.Cohort = c.Query("cohort")
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Offset = parsed
		}
	}
	return f, nil
}

func parseTimeParam(v string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse("2006-01-02", v); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, errors.New("time must be RFC3339 or YYYY-MM-DD: " + v)
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, presence.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, presence.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, presence.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, presence.ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func failReason(err error) string {
	switch {
	case errors.Is(err, presence.ErrNotFound):
		return "not_found"
	case errors.Is(err, presence.ErrValidation):
		return "validation"
	case errors.Is(err, presence.ErrTimeout):
		return "timeout"
	case errors.Is(err, presence.ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}

// userMessage keeps store internals out of responses while staying
// actionable for the operator.
func userMessage(err error) string {
	switch {
	case errors.Is(err, presence.ErrNotFound):
		return "invalid code or unknown learner"
	case errors.Is(err, presence.ErrValidation):
		return err.Error()
	case errors.Is(err, presence.ErrTimeout):
		return "storage timed out, try again"
	case errors.Is(err, presence.ErrPersistence):
		return "storage unavailable"
	default:
		return "internal error"
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
