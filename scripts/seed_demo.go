package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"jobboard/recommendation-service/internal/config"
	"jobboard/recommendation-service/internal/models"
	"jobboard/recommendation-service/internal/pkg/clock"
	"jobboard/recommendation-service/internal/pkg/logger"
	"jobboard/recommendation-service/internal/repositories"
	"jobboard/recommendation-service/internal/services"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("🚀 Seeding demo data...")

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("❌ Failed to initialize database", "error", err)
	}

	clk := clock.System()
	recService := services.NewRecommendationService(
		repositories.NewRecommendationRepository(db),
		clk,
		services.ListLimits{Default: cfg.API.DefaultListLimit, Max: cfg.API.MaxListLimit},
		log,
	)
	searchService := services.NewSavedSearchService(repositories.NewSavedSearchRepository(db), clk, log)

	ctx := context.Background()
	candidate := uuid.New()
	recruiter := uuid.New()
	job := uuid.New()

	score := func(v float64) *float64 { return &v }

	recs := []struct {
		Name  string
		Input models.RecommendationInput
	}{
		{
			Name: "Backend role for candidate",
			Input: models.RecommendationInput{
				RequesterID:           candidate,
				RequesterRole:         models.RoleCandidate,
				RecommendationKind:    models.KindJobForCandidate,
				RecommendedEntityID:   uuid.New(),
				RecommendedEntityType: models.EntityJob,
				Score:                 score(0.82),
				AlgorithmVersion:      "seed-1",
				Reasons: []models.RecommendationReason{
					{Factor: models.FactorSkillsMatch, Weight: 0.6, Score: 0.9, Description: "Go, PostgreSQL"},
					{Factor: models.FactorLocationMatch, Weight: 0.4, Score: 0.7},
				},
			},
		},
		{
			Name: "Candidate for recruiter job",
			Input: models.RecommendationInput{
				RequesterID:           recruiter,
				RequesterRole:         models.RoleRecruiter,
				RecommendationKind:    models.KindCandidateForJob,
				RecommendedEntityID:   uuid.New(),
				RecommendedEntityType: models.EntityCandidate,
				ContextJobID:          &job,
				Score:                 score(0.74),
				AlgorithmVersion:      "seed-1",
				Reasons: []models.RecommendationReason{
					{Factor: models.FactorExperienceMatch, Weight: 1, Score: 0.74},
				},
			},
		},
	}

	successCount := 0
	failCount := 0

	for _, r := range recs {
		rec, err := recService.Create(ctx, r.Input)
		if err != nil {
			log.Error("❌ Failed to seed recommendation", "name", r.Name, "error", err)
			failCount++
			continue
		}
		log.Info("✅ Seeded recommendation", "name", r.Name, "id", rec.ID, "aggregate_score", rec.AggregateScore())
		successCount++
	}

	enabled := true
	search, err := searchService.Create(ctx, models.SavedSearchInput{
		UserID:                candidate,
		Name:                  "Remote Go roles",
		Keywords:              "golang backend",
		Filters:               map[string]interface{}{"remote": true},
		EnableAlerts:          &enabled,
		NotificationFrequency: string(models.FrequencyDaily),
	})
	if err != nil {
		log.Error("❌ Failed to seed saved search", "error", err)
		failCount++
	} else {
		log.Info("✅ Seeded saved search", "id", search.ID, "frequency", search.NotificationFrequency)
		successCount++
	}

	fmt.Println(strings.Repeat("=", 60))
	log.Info("📊 Seed summary", "successful", successCount, "failed", failCount)
	fmt.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Warn("⚠️  Some records failed to seed")
		os.Exit(1)
	}
}
