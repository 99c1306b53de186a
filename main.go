// main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"endotrack/config"
	"endotrack/handlers"
	"endotrack/models"
	"endotrack/services"
	"endotrack/store"
	"endotrack/utils"
	"endotrack/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	var configPath, addr, storeSecret string
	flagSet := pflag.NewFlagSet("endotrack", pflag.ExitOnError)
	flagSet.StringVar(&configPath, "config", "endotrack.yaml", "path to the YAML config file")
	flagSet.StringVar(&addr, "addr", "", "listen address (overrides config)")
	flagSet.StringVar(&storeSecret, "store-secret", "", "read a secret ("+config.SecretJWT+" or "+config.SecretS3+") from stdin, save it in the OS keyring and exit")
	flagSet.Parse(os.Args[1:])

	if storeSecret != "" {
		if err := saveSecretFromStdin(storeSecret); err != nil {
			log.Fatal("failed to store secret: ", err)
		}
		log.Printf("✅ Stored %s in the keyring", storeSecret)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.ClaimRecord{},
	); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	local, err := store.NewLocalStore(cfg.LocalDBPath)
	if err != nil {
		log.Fatal("failed to open local store: ", err)
	}
	defer local.Close()

	var cache store.Cache = local
	if cfg.CacheBackend == config.CacheBackendRedis {
		redisCache, err := store.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("failed to connect to redis: ", err)
		}
		defer redisCache.Close()
		cache = redisCache
	}

	remote, err := openDocumentStore(ctx, cfg, db)
	if err != nil {
		log.Fatal("failed to open document store: ", err)
	}
	if closer, ok := remote.(io.Closer); ok {
		defer closer.Close()
	}

	var claims store.ClaimStore = &store.CacheClaimStore{Cache: cache}
	if cfg.ClaimBackend == config.ClaimBackendPostgres {
		claims = &store.GormClaimStore{DB: db}
	}

	var blobs utils.BlobStore
	if cfg.S3.Bucket != "" {
		s3Store, err := utils.NewS3BlobStore(ctx, utils.S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			CDNBaseURL:      cfg.S3.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize blob store: ", err)
		}
		blobs = s3Store
	} else {
		log.Println("⚠️  No blob bucket configured, photos stay local only")
	}

	fs := afero.NewOsFs()
	if err := utils.EnsureDir(fs, cfg.PhotoDir); err != nil {
		log.Fatal("failed to ensure photo dir: ", err)
	}

	data := services.NewReconciler(remote, cache, local, fs)
	ledger := services.NewRewardLedger(claims)
	homeService := services.NewHomeService(data, ledger)
	profileService := services.NewProfileService(data)
	photoService := services.NewPhotoService(data, blobs, fs, cfg.PhotoDir)
	authService := services.NewAuthService(db, cache, cfg.JWTSecret, cfg.TokenTTL)
	loads := services.NewLoadTracker()

	replayWorker := workers.NewReplayWorker(local, remote)
	sched, err := workers.StartReplayScheduler(replayWorker, cfg.ReplayInterval)
	if err != nil {
		log.Fatal("failed to start replay scheduler: ", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	handlers.SetupAuthRoutes(app, authService, profileService)
	handlers.SetupDayRoutes(app, authService, homeService, loads)
	handlers.SetupProfileRoutes(app, authService, profileService)
	handlers.SetupPhotoRoutes(app, authService, photoService)

	go func() {
		if err := app.Listen(cfg.Addr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.Addr)
	log.Printf("✅ Document backend: %s, cache: %s, claims: %s", cfg.DocumentBackend, cfg.CacheBackend, cfg.ClaimBackend)
	log.Printf("✅ Pending write replay running (every %s)", cfg.ReplayInterval)
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := replayWorker.Drain(shutdownCtx); err != nil {
		log.Printf("⚠️  Pending writes left in queue: %v", err)
	}
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func saveSecretFromStdin(name string) error {
	if name != config.SecretJWT && name != config.SecretS3 {
		return fmt.Errorf("unknown secret %q", name)
	}
	value, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading secret: %w", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty secret")
	}
	return config.SetSecret(name, value)
}

func openDocumentStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (store.DocumentStore, error) {
	switch cfg.DocumentBackend {
	case config.DocumentBackendFirestore:
		return store.NewFirestoreStore(ctx, cfg.FirestoreProject)
	case config.DocumentBackendPostgres:
		return store.NewGormDocumentStore(db), nil
	}
	return nil, fmt.Errorf("unknown document backend %q", cfg.DocumentBackend)
}
