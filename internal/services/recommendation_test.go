package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"jobboard/recommendation-service/internal/models"
	"jobboard/recommendation-service/internal/pkg/clock"
	"jobboard/recommendation-service/internal/pkg/logger"
	"jobboard/recommendation-service/internal/pkg/testdb"
	"jobboard/recommendation-service/internal/repositories"
)

func newRecommendationService(t *testing.T) (RecommendationService, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(start)
	repo := repositories.NewRecommendationRepository(testdb.Open(t))
	return NewRecommendationService(repo, clk, ListLimits{Default: 2, Max: 3}, logger.NewNop()), clk
}

func candidateInput(requester uuid.UUID, score float64) models.RecommendationInput {
	return models.RecommendationInput{
		RequesterID:           requester,
		RequesterRole:         models.RoleCandidate,
		RecommendationKind:    models.KindJobForCandidate,
		RecommendedEntityID:   uuid.New(),
		RecommendedEntityType: models.EntityJob,
		Score:                 &score,
		AlgorithmVersion:      "svc-test",
	}
}

func TestRecommendationServiceCreateUsesClock(t *testing.T) {
	svc, _ := newRecommendationService(t)
	rec, err := svc.Create(context.Background(), candidateInput(uuid.New(), 0.7))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := start.Add(14 * 24 * time.Hour); !rec.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt: want=%v got=%v", want, rec.ExpiresAt)
	}
}

func TestRecommendationServiceCreateRejectsInvalid(t *testing.T) {
	svc, _ := newRecommendationService(t)
	in := candidateInput(uuid.New(), 1.5)
	_, err := svc.Create(context.Background(), in)
	var ve *models.ValidationError
	if !errors.As(err, &ve) || ve.Field != "score" {
		t.Fatalf("expected score validation error, got %v", err)
	}
}

func TestRecommendationServiceListActiveLimits(t *testing.T) {
	ctx := context.Background()
	svc, clk := newRecommendationService(t)
	requester := uuid.New()
	for _, score := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		if _, err := svc.Create(ctx, candidateInput(requester, score)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := svc.ListActive(ctx, requester, 0)
	if err != nil || len(got) != 2 {
		t.Fatalf("default limit: len=%d err=%v", len(got), err)
	}
	if got[0].Score != 0.5 {
		t.Fatalf("ordering: first score want=0.5 got=%v", got[0].Score)
	}
	got, _ = svc.ListActive(ctx, requester, 50)
	if len(got) != 3 {
		t.Fatalf("max limit: want=3 got=%d", len(got))
	}

	clk.Advance(14 * 24 * time.Hour)
	got, _ = svc.ListActive(ctx, requester, 3)
	if len(got) != 0 {
		t.Fatalf("expired records listed: %d", len(got))
	}
}

func TestRecommendationServiceMarkViewedConcurrent(t *testing.T) {
	ctx := context.Background()
	svc, clk := newRecommendationService(t)
	rec, err := svc.Create(ctx, candidateInput(uuid.New(), 0.6))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	clk.Advance(time.Minute)
	firstView := clk.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.MarkViewed(ctx, rec.ID); err != nil {
				t.Errorf("MarkViewed: %v", err)
			}
		}()
	}
	wg.Wait()

	clk.Advance(time.Hour)
	got, err := svc.MarkViewed(ctx, rec.ID)
	if err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if !got.IsViewed || !got.ViewedAt.Equal(firstView) {
		t.Fatalf("ViewedAt: want=%v got=%v", firstView, got.ViewedAt)
	}
}

func TestRecommendationServiceMarkClicked(t *testing.T) {
	ctx := context.Background()
	svc, clk := newRecommendationService(t)
	rec, _ := svc.Create(ctx, candidateInput(uuid.New(), 0.6))

	got, err := svc.MarkClicked(ctx, rec.ID)
	if err != nil {
		t.Fatalf("MarkClicked: %v", err)
	}
	clk.Advance(time.Minute)
	again, err := svc.MarkClicked(ctx, rec.ID)
	if err != nil {
		t.Fatalf("MarkClicked again: %v", err)
	}
	if !again.ClickedAt.Equal(*got.ClickedAt) {
		t.Fatalf("ClickedAt moved: first=%v second=%v", got.ClickedAt, again.ClickedAt)
	}
}

func TestRecommendationServiceFeedback(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRecommendationService(t)
	rec, _ := svc.Create(ctx, candidateInput(uuid.New(), 0.6))

	yes, no := true, false
	if _, err := svc.SubmitFeedback(ctx, rec.ID, models.FeedbackInput{Rating: 3, IsHelpful: &yes, Text: "ok"}); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if _, err := svc.SubmitFeedback(ctx, rec.ID, models.FeedbackInput{Rating: 5, IsHelpful: &no, Text: "better"}); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if _, err := svc.SubmitFeedback(ctx, rec.ID, models.FeedbackInput{Rating: 0}); err == nil {
		t.Fatalf("rating 0 should be rejected")
	}

	got, _ := svc.Get(ctx, rec.ID)
	fb := got.UserFeedback
	if fb.Rating != 5 || fb.IsHelpful == nil || *fb.IsHelpful || fb.Text != "better" {
		t.Fatalf("feedback: got=%+v", fb)
	}
}

func TestRecommendationServiceTerminalStates(t *testing.T) {
	ctx := context.Background()
	svc, clk := newRecommendationService(t)

	expiring, _ := svc.Create(ctx, candidateInput(uuid.New(), 0.6))
	moderated, _ := svc.Create(ctx, candidateInput(uuid.New(), 0.6))

	if _, err := svc.Deactivate(ctx, moderated.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := svc.MarkViewed(ctx, moderated.ID); !errors.Is(err, models.ErrRecommendationInactive) {
		t.Fatalf("inactive view: want=%v got=%v", models.ErrRecommendationInactive, err)
	}

	clk.Set(expiring.ExpiresAt)
	if _, err := svc.MarkClicked(ctx, expiring.ID); !errors.Is(err, models.ErrRecommendationExpired) {
		t.Fatalf("expired click: want=%v got=%v", models.ErrRecommendationExpired, err)
	}
	if _, err := svc.SubmitFeedback(ctx, expiring.ID, models.FeedbackInput{Rating: 4}); !errors.Is(err, models.ErrRecommendationExpired) {
		t.Fatalf("expired feedback: want=%v got=%v", models.ErrRecommendationExpired, err)
	}

	if _, err := svc.MarkViewed(ctx, uuid.New()); !errors.Is(err, models.ErrRecommendationNotFound) {
		t.Fatalf("missing: want=%v got=%v", models.ErrRecommendationNotFound, err)
	}
}

func TestTTLSweeper(t *testing.T) {
	ctx := context.Background()
	svc, clk := newRecommendationService(t)
	requester := uuid.New()

	short := candidateInput(requester, 0.4)
	shortExpiry := start.Add(time.Hour)
	short.ExpiresAt = &shortExpiry
	if _, err := svc.Create(ctx, short); err != nil {
		t.Fatalf("Create: %v", err)
	}
	kept, err := svc.Create(ctx, candidateInput(requester, 0.9))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sweeper := NewTTLSweeper(svc, time.Hour, logger.NewNop())
	if n, err := sweeper.Sweep(ctx); err != nil || n != 0 {
		t.Fatalf("early sweep: n=%d err=%v", n, err)
	}

	clk.Advance(time.Hour)
	if n, err := sweeper.Sweep(ctx); err != nil || n != 1 {
		t.Fatalf("sweep: n=%d err=%v", n, err)
	}
	if _, err := svc.Get(ctx, kept.ID); err != nil {
		t.Fatalf("kept record: %v", err)
	}
}

// deactivatingRepository deactivates the record between the service's read and its
// conditional update.
type deactivatingRepository struct {
	repositories.RecommendationRepository
}

func (r deactivatingRepository) MarkViewed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if err := r.RecommendationRepository.Deactivate(ctx, id, at); err != nil {
		return false, err
	}
	return r.RecommendationRepository.MarkViewed(ctx, id, at)
}

func TestRecommendationServiceMarkViewedLosesToDeactivate(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixed(start)
	repo := repositories.NewRecommendationRepository(testdb.Open(t))
	svc := NewRecommendationService(deactivatingRepository{repo}, clk, ListLimits{}, logger.NewNop())

	rec, err := svc.Create(ctx, candidateInput(uuid.New(), 0.6))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.MarkViewed(ctx, rec.ID); !errors.Is(err, models.ErrRecommendationInactive) {
		t.Fatalf("MarkViewed: want=%v got=%v", models.ErrRecommendationInactive, err)
	}
	got, _ := repo.FindByID(ctx, rec.ID)
	if got.IsViewed {
		t.Fatalf("deactivated record was latched")
	}
}
