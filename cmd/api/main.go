package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"picture-catalog/internal/config"
	"picture-catalog/internal/handler"
	"picture-catalog/internal/media/exif"
	"picture-catalog/internal/media/ingest"
	"picture-catalog/internal/middleware"
	"picture-catalog/internal/pkg/license"
	applog "picture-catalog/internal/pkg/logger"
	"picture-catalog/internal/repository"
	"picture-catalog/internal/service"
	"picture-catalog/internal/storage"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := applog.New(cfg.Environment)

	if envErr != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	licenses, err := license.Load(cfg.LicensesFile, cfg.DefaultLicense)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load license list")
	}
	log.Info().Strs("licenses", licenses.Names()).Str("default", licenses.Default()).Msg("license list loaded")

	ctx := context.Background()
	repos, files := setupStores(ctx, cfg, log)

	redisClient, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		repos.Picture = repository.NewCachedPictureStore(repos.Picture, redisClient, cfg.PictureCacheTTL, log)
	}

	services := service.NewServices(repos, files, ingest.New(), exif.NewExtractor(), licenses, log)
	handlers := handler.NewHandlers(services, cfg.RequestTimeout)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(log),
		BodyLimit:    cfg.MaxUploadSize,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	handler.SetupRoutes(app, handlers, cfg.JWTSecret)

	log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

func setupStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repository.Repositories, storage.FileStore) {
	storeOpts := storage.Options{
		Bucket:         cfg.MinIOBucket,
		PublicEndpoint: cfg.MinIOPublicEndpoint,
		PublicUseSSL:   cfg.MinIOPublicUseSSL,
	}

	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("using in-memory stores, data is lost on restart")
		return repository.NewMemoryRepositories(), storage.NewMemoryStore(storeOpts)
	}

	db, err := config.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	minioClient, err := config.NewMinIOClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MinIO")
	}

	return repository.NewRepositories(db), storage.NewMinIOStore(minioClient, storeOpts)
}
