// Command notes runs the patient and note API on its own, trusting access
// tokens signed with JWT_SECRET by the main service. Without MONGODB_URI, or
// when Mongo is unreachable, it keeps data in memory.
package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/adityakmrtiwari/CliNote/internal/database"
	notehandler "github.com/adityakmrtiwari/CliNote/internal/note/handler"
	noterepo "github.com/adityakmrtiwari/CliNote/internal/note/repository"
	noteservice "github.com/adityakmrtiwari/CliNote/internal/note/service"
	patienthandler "github.com/adityakmrtiwari/CliNote/internal/patient/handler"
	patientrepo "github.com/adityakmrtiwari/CliNote/internal/patient/repository"
	patientservice "github.com/adityakmrtiwari/CliNote/internal/patient/service"
	"github.com/adityakmrtiwari/CliNote/internal/sessions"
	"github.com/adityakmrtiwari/CliNote/internal/tokens"
	"github.com/adityakmrtiwari/CliNote/pkg/logger"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("NOTES_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatalf("JWT_SECRET is required")
	}

	ctx := context.Background()
	var pRepo patientrepo.Repository = patientrepo.NewMemoryRepo()
	var nRepo noterepo.Repository = noterepo.NewMemoryRepo()
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		client, err := database.ConnectMongo(ctx, uri, 10*time.Second)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v); using memory-backed repos", err)
		} else {
			dbName := os.Getenv("MONGODB_DATABASE")
			if dbName == "" {
				dbName = "clinote"
			}
			db := client.Database(dbName)
			mp, err := patientrepo.NewMongoRepo(ctx, db.Collection("patients"))
			if err != nil {
				logger.Fatalf("patients repository: %v", err)
			}
			mn, err := noterepo.NewMongoRepo(ctx, db.Collection("notes"))
			if err != nil {
				logger.Fatalf("notes repository: %v", err)
			}
			pRepo, nRepo = mp, mn
		}
	}

	patients := patientservice.NewService(pRepo)
	notes := noteservice.NewService(nRepo, patients)
	patients.SetNotes(notes)

	r := gin.New()
	r.Use(gin.Recovery())
	api := r.Group("/api")
	// Logout revocations are only visible when sharing the main service's Redis.
	var revoked middleware.RevocationChecker
	if host := os.Getenv("REDIS_HOST"); host != "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		revoked = sessions.NewRedisBlacklist(redis.NewClient(&redis.Options{Addr: host + ":" + port, Password: os.Getenv("REDIS_PASSWORD")}), sessions.DefaultRevokedPrefix)
	}
	api.Use(middleware.AuthMiddleware(tokens.NewVerifier(secret), revoked))
	patienthandler.RegisterPatientRoutes(api, patients)
	notehandler.RegisterNoteRoutes(api, notes, patients)

	logger.Infof("notes service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("%v", err)
	}
}
