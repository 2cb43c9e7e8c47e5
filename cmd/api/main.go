package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/ilramdhan/scene-expr/config"
	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/internal/infrastructure/persistence"
	"github.com/ilramdhan/scene-expr/internal/modules/evaluation"
	"github.com/ilramdhan/scene-expr/internal/runtime"
	"github.com/ilramdhan/scene-expr/pkg/database"
	"github.com/ilramdhan/scene-expr/pkg/logger"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

type createExpressionRequest struct {
	SceneName   string `json:"scene_name"`
	Owner       string `json:"owner"`
	PlainString string `json:"plain_string"`
}

type objectIDRequest struct {
	ID *uint32 `json:"id"`
}

// statusFor maps evaluation errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fiber.StatusNotFound
	case errors.Is(err, objectid.ErrExhausted):
		return fiber.StatusConflict
	case evaluation.IsInputError(err):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func main() {
	godotenv.Load()

	cfg := config.Load()
	log := logger.Init(&cfg.Log)
	ctx := context.Background()

	// Database connection
	pool, err := database.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Initialize repositories
	exprRepo := persistence.NewExpressionRepository(pool)
	oidRepo := persistence.NewObjectIdentifierRepository(pool)
	jobRepo := persistence.NewBatchJobRepository(pool)
	idStore := persistence.IdentifierStore{Repo: oidRepo}

	ids := objectid.NewManager()
	if err := ids.Load(ctx, idStore); err != nil {
		log.Fatalf("Failed to load object identifiers: %v", err)
	}
	log.WithField("count", ids.Len()).Info("Object identifiers loaded")

	// Initialize evaluation engine and validation pool
	engine := evaluation.NewEngine(exprRepo, runtime.NewFunctions(), ids, cfg.Evaluation, log)
	validationPool := evaluation.NewValidationPool(engine, exprRepo, jobRepo, cfg.Worker.Count, cfg.Worker.BatchSize, log)

	app := fiber.New(fiber.Config{
		AppName:      "Scene Expression API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		if err := database.Ping(c.Context(), pool, 2*time.Second); err != nil {
			status, code = "degraded", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":     status,
			"cache":      engine.CacheStats(),
			"object_ids": ids.Len(),
			"timestamp":  time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api/v1")

	api.Post("/evaluate", func(c *fiber.Ctx) error {
		var req evaluation.EvaluateRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		res, err := engine.Evaluate(c.Context(), req)
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	// Stored expression endpoints
	api.Get("/expressions", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)
		offset := c.QueryInt("offset", 0)
		exprs, err := exprRepo.List(c.Context(), c.Query("scene"), limit, offset)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		count, _ := exprRepo.Count(c.Context())
		return c.JSON(fiber.Map{
			"data":   exprs,
			"total":  count,
			"limit":  limit,
			"offset": offset,
		})
	})

	api.Post("/expressions", func(c *fiber.Ctx) error {
		var req createExpressionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		now := time.Now()
		stored := &entity.StoredExpression{
			ID:          uuid.New(),
			SceneName:   req.SceneName,
			Owner:       req.Owner,
			PlainString: req.PlainString,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		res := engine.Validate(stored)
		stored.Kind, stored.Valid, stored.LastError = res.Kind, res.Valid, res.Error
		stored.ValidatedAt = &res.ValidatedAt

		if err := exprRepo.Create(c.Context(), stored); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(stored)
	})

	api.Get("/expressions/:id", func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
		}
		stored, err := exprRepo.GetByID(c.Context(), id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(stored)
	})

	api.Post("/expressions/:id/evaluate", func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
		}
		var req evaluation.EvaluateRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
			}
		}
		res, err := engine.EvaluateStored(c.Context(), id, req)
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	api.Post("/validate/all", func(c *fiber.Ctx) error {
		now := time.Now()
		job := &entity.BatchJob{
			ID:        uuid.New(),
			JobType:   entity.JobTypeValidateAll,
			Status:    entity.JobStatusPending,
			CreatedAt: now,
			StartedAt: &now,
		}
		if err := jobRepo.Create(c.Context(), job); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		go func() {
			err := validationPool.ValidateAll(context.Background(), job.ID)
			switch {
			case err == nil:
			case errors.Is(err, evaluation.ErrJobNotPending):
				log.WithField("job_id", job.ID).Debug("Job claimed by a worker")
			default:
				log.WithError(err).WithField("job_id", job.ID).Error("Validation failed")
				jobRepo.Fail(context.Background(), job.ID, err.Error())
			}
		}()

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_id":  job.ID,
			"message": "Validation started",
			"status":  job.Status,
		})
	})

	// Job status endpoints
	api.Get("/jobs", func(c *fiber.Ctx) error {
		jobs, err := jobRepo.ListRecent(c.Context(), c.QueryInt("limit", 20))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"data": jobs})
	})

	api.Get("/jobs/:id", func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
		}
		job, err := jobRepo.GetByID(c.Context(), id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(fiber.Map{
			"job":      job,
			"progress": job.Progress(),
		})
	})

	// Object identifier endpoints. "registered" is the current mapping,
	// "resolved" is what an expression naming the object has cached.
	api.Get("/object-ids/:name", func(c *fiber.Ctx) error {
		name := c.Params("name")
		return c.JSON(fiber.Map{
			"name":       name,
			"registered": ids.Lookup(name),
			"resolved":   engine.ObjectIdentifier(name),
		})
	})

	api.Put("/object-ids/:name", func(c *fiber.Ctx) error {
		name := c.Params("name")
		var req objectIDRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
			}
		}

		var (
			id  objectid.ID
			err error
		)
		if req.ID != nil {
			id = objectid.ID(*req.ID)
			err = ids.AssignAndSave(c.Context(), idStore, name, id)
		} else {
			id, err = ids.RegisterAndSave(c.Context(), idStore, name)
		}
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"name": name, "registered": id})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("Shutting down server...")
		app.Shutdown()
	}()

	log.Infof("Starting API server on :%s", cfg.App.Port)
	if err := app.Listen(":" + cfg.App.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
