package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ilramdhan/scene-expr/config"
	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/internal/domain/repository"
	"github.com/ilramdhan/scene-expr/internal/infrastructure/persistence"
	"github.com/ilramdhan/scene-expr/pkg/database"
	"github.com/ilramdhan/scene-expr/pkg/logger"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

var (
	sceneCount  = flag.Int("scenes", 100, "Number of scenes to generate")
	perScene    = flag.Int("per-scene", 1000, "Number of expressions per scene")
	batchSize   = flag.Int("batch", 5000, "Batch size for COPY operations")
	workerCount = flag.Int("workers", 10, "Number of parallel workers")
	withObjects = flag.Bool("objects", true, "Register object identifiers for the sample objects")
	brokenRatio = flag.Float64("broken", 0.02, "Fraction of expressions that fail to preprocess")
)

var objectNames = []string{"Player", "Enemy", "Coin", "Door", "Platform", "Bullet", "Camera", "Score"}

// Authored forms sampled by the seeder. %[1]s and %[2]s are object names.
var mathTemplates = []string{
	"%[1]s.X() + 10",
	"%[1]s.Y() * 2 - %[2]s.Y()",
	"Variable(speed) * TimeDelta()",
	"abs(%[1]s.X() - %[2]s.X())",
	"%[1]s.Distance(%[2]s) / 32",
	"clamp(%[1]s.Variable(hp) - 5, 0, 100)",
	"Random(10) + 1",
	"max(%[1]s.Angle(), 90) - min(Count(%[2]s), 4)",
	"sqrt(pow(%[1]s.X(), 2) + pow(%[1]s.Y(), 2))",
	"floor(Variable(level) / 3)",
}

var textTemplates = []string{
	`"Hello " + %[1]s.Name()`,
	`"Score: " + ToString(Variable(score))`,
	`UpperCase(%[1]s.VariableString(title))`,
	`SceneName() + " / " + %[2]s.Name()`,
	`"\"quoted\" " + LowerCase(VariableString(message))`,
}

var brokenTemplates = []string{
	"Foo.Bar()",
	"%[1]s.X( + 1",
	"Unknown(3) * 2",
	`"unterminated + %[1]s.Name()`,
}

// PerformanceMetrics holds timing and throughput data
type PerformanceMetrics struct {
	TotalExpressions int64
	TotalObjectIDs   int64
	ObjectTime       time.Duration
	ExpressionTime   time.Duration
	TotalTime        time.Duration
}

func main() {
	flag.Parse()
	godotenv.Load()

	cfg := config.Load()
	log := logger.Init(&cfg.Log)
	ctx := context.Background()

	log.WithFields(logrus.Fields{
		"scenes":    *sceneCount,
		"per_scene": *perScene,
		"total":     *sceneCount * *perScene,
		"batch":     *batchSize,
		"workers":   *workerCount,
		"cpus":      runtime.NumCPU(),
	}).Info("Seeder configuration")

	pool, err := database.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	overallStart := time.Now()
	var metrics PerformanceMetrics

	if *withObjects {
		phaseStart := time.Now()
		n, err := seedObjectIdentifiers(ctx, persistence.NewObjectIdentifierRepository(pool))
		if err != nil {
			log.Fatalf("Failed to seed object identifiers: %v", err)
		}
		metrics.TotalObjectIDs = n
		metrics.ObjectTime = time.Since(phaseStart)
	}

	phaseStart := time.Now()
	metrics.TotalExpressions = seedExpressions(ctx, log, persistence.NewExpressionRepository(pool))
	metrics.ExpressionTime = time.Since(phaseStart)
	metrics.TotalTime = time.Since(overallStart)

	printPerformanceSummary(log, metrics)
}

func seedObjectIdentifiers(ctx context.Context, repo repository.ObjectIdentifierRepository) (int64, error) {
	store := persistence.IdentifierStore{Repo: repo}
	ids := objectid.NewManager()
	if err := ids.Load(ctx, store); err != nil {
		return 0, err
	}
	for _, name := range objectNames {
		if _, err := ids.RegisterAndSave(ctx, store, name); err != nil {
			return 0, err
		}
	}
	return int64(len(objectNames)), nil
}

func seedExpressions(ctx context.Context, log *logrus.Logger, repo repository.ExpressionRepository) int64 {
	total := int64(*sceneCount * *perScene)
	sceneChan := make(chan int, *workerCount*2)

	var (
		completed int64
		wg        sync.WaitGroup
		done      = make(chan struct{})
	)

	// Progress reporter
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c := atomic.LoadInt64(&completed)
				log.Infof("Progress: expressions=%d/%d (%.1f%%)", c, total, float64(c)/float64(total)*100)
			}
		}
	}()

	for w := 0; w < *workerCount; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			batch := make([]*entity.StoredExpression, 0, *batchSize)

			flush := func() {
				if len(batch) == 0 {
					return
				}
				if _, err := repo.CreateBatch(ctx, batch); err != nil {
					log.WithError(err).WithField("worker", workerID).Warn("Failed to insert expressions")
				}
				atomic.AddInt64(&completed, int64(len(batch)))
				batch = batch[:0]
			}

			for sceneIdx := range sceneChan {
				sceneName := fmt.Sprintf("Level%03d", sceneIdx)
				for j := 0; j < *perScene; j++ {
					now := time.Now()
					batch = append(batch, &entity.StoredExpression{
						ID:          uuid.New(),
						SceneName:   sceneName,
						Owner:       fmt.Sprintf("event#%d", j),
						PlainString: generateExpression(rng),
						Kind:        "unprocessed",
						CreatedAt:   now,
						UpdatedAt:   now,
					})
					if len(batch) >= *batchSize {
						flush()
					}
				}
			}
			flush()
		}(w)
	}

	for i := 0; i < *sceneCount; i++ {
		sceneChan <- i
	}
	close(sceneChan)

	wg.Wait()
	close(done)

	log.Infof("Completed: %d expressions created", atomic.LoadInt64(&completed))
	return atomic.LoadInt64(&completed)
}

func generateExpression(rng *rand.Rand) string {
	a := objectNames[rng.Intn(len(objectNames))]
	b := objectNames[rng.Intn(len(objectNames))]

	if rng.Float64() < *brokenRatio {
		return fmt.Sprintf(brokenTemplates[rng.Intn(len(brokenTemplates))], a, b)
	}
	if rng.Intn(4) == 0 {
		return fmt.Sprintf(textTemplates[rng.Intn(len(textTemplates))], a, b)
	}
	return fmt.Sprintf(mathTemplates[rng.Intn(len(mathTemplates))], a, b)
}

func printPerformanceSummary(log *logrus.Logger, m PerformanceMetrics) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	fields := logrus.Fields{
		"total_time":      m.TotalTime.Round(time.Millisecond),
		"object_time":     m.ObjectTime.Round(time.Millisecond),
		"expression_time": m.ExpressionTime.Round(time.Millisecond),
		"expressions":     m.TotalExpressions,
		"object_ids":      m.TotalObjectIDs,
		"alloc_mb":        memStats.Alloc / 1024 / 1024,
		"total_alloc_mb":  memStats.TotalAlloc / 1024 / 1024,
		"gc_cycles":       memStats.NumGC,
	}
	if m.ExpressionTime.Seconds() > 0 {
		fields["expressions_per_sec"] = int64(float64(m.TotalExpressions) / m.ExpressionTime.Seconds())
	}
	log.WithFields(fields).Info("Seeding complete")
}
