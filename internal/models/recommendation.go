package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaxReasonDescriptionLength = 200
	MaxFeedbackTextLength      = 500
	DefaultConfidence          = 0.5
	MinFeedbackRating          = 1
	MaxFeedbackRating          = 5
)

type RequesterRole string

const (
	RoleCandidate RequesterRole = "candidate"
	RoleRecruiter RequesterRole = "recruiter"
)

func (r RequesterRole) Valid() bool {
	return r == RoleCandidate || r == RoleRecruiter
}

type RecommendationKind string

const (
	KindJobForCandidate RecommendationKind = "job_for_candidate"
	KindCandidateForJob RecommendationKind = "candidate_for_job"
)

func (k RecommendationKind) Valid() bool {
	return k == KindJobForCandidate || k == KindCandidateForJob
}

// EntityType is the type a recommendation of this kind must point at.
func (k RecommendationKind) EntityType() EntityType {
	if k == KindJobForCandidate {
		return EntityJob
	}
	return EntityCandidate
}

// DefaultTTL is the validity window used when no explicit expiry is supplied.
func (k RecommendationKind) DefaultTTL() time.Duration {
	if k == KindJobForCandidate {
		return 14 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

type EntityType string

const (
	EntityJob       EntityType = "Job"
	EntityCandidate EntityType = "Candidate"
)

func (e EntityType) Valid() bool {
	return e == EntityJob || e == EntityCandidate
}

type Factor string

const (
	FactorSkillsMatch      Factor = "skills_match"
	FactorExperienceMatch  Factor = "experience_match"
	FactorLocationMatch    Factor = "location_match"
	FactorSalaryMatch      Factor = "salary_match"
	FactorEducationMatch   Factor = "education_match"
	FactorIndustryMatch    Factor = "industry_match"
	FactorPortfolioQuality Factor = "portfolio_quality"
	FactorPastPerformance  Factor = "past_performance"
	FactorAvailability     Factor = "availability"
)

var knownFactors = map[Factor]struct{}{
	FactorSkillsMatch:      {},
	FactorExperienceMatch:  {},
	FactorLocationMatch:    {},
	FactorSalaryMatch:      {},
	FactorEducationMatch:   {},
	FactorIndustryMatch:    {},
	FactorPortfolioQuality: {},
	FactorPastPerformance:  {},
	FactorAvailability:     {},
}

func (f Factor) Valid() bool {
	_, ok := knownFactors[f]
	return ok
}

type RecommendationReason struct {
	Factor      Factor  `json:"factor"`
	Weight      float64 `json:"weight"`
	Score       float64 `json:"score"`
	Description string  `json:"description,omitempty"`
}

// UserFeedback is stored inline on the recommendation. Rating 0 means no feedback yet.
type UserFeedback struct {
	Rating    int        `gorm:"type:smallint;not null" json:"rating"`
	IsHelpful *bool      `json:"is_helpful"`
	Text      string     `gorm:"type:text" json:"feedback_text,omitempty"`
	Date      *time.Time `json:"feedback_date,omitempty"`
}

type Recommendation struct {
	ID                    uuid.UUID                                `gorm:"type:uuid;primary_key" json:"id"`
	RequesterID           uuid.UUID                                `gorm:"type:uuid;not null;index:idx_recommendations_listing,priority:1" json:"requester_id"`
	RequesterRole         RequesterRole                            `gorm:"type:varchar(20);not null" json:"requester_role"`
	RecommendationKind    RecommendationKind                       `gorm:"type:varchar(32);not null;index" json:"recommendation_kind"`
	RecommendedEntityID   uuid.UUID                                `gorm:"type:uuid;not null;index" json:"recommended_entity_id"`
	RecommendedEntityType EntityType                               `gorm:"type:varchar(16);not null" json:"recommended_entity_type"`
	ContextJobID          *uuid.UUID                               `gorm:"type:uuid" json:"context_job_id,omitempty"`
	Score                 float64                                  `gorm:"not null;index" json:"score"`
	Confidence            float64                                  `gorm:"not null" json:"confidence"`
	AlgorithmVersion      string                                   `gorm:"type:varchar(64);not null" json:"algorithm_version"`
	Reasons               datatypes.JSONSlice[RecommendationReason] `json:"reasons"`
	IsViewed              bool                                     `gorm:"not null" json:"is_viewed"`
	ViewedAt              *time.Time                               `json:"viewed_at,omitempty"`
	IsClicked             bool                                     `gorm:"not null" json:"is_clicked"`
	ClickedAt             *time.Time                               `json:"clicked_at,omitempty"`
	UserFeedback          UserFeedback                             `gorm:"embedded;embeddedPrefix:feedback_" json:"user_feedback"`
	ExpiresAt             time.Time                                `gorm:"not null;index:idx_recommendations_listing,priority:3" json:"expires_at"`
	IsActive              bool                                     `gorm:"not null;index:idx_recommendations_listing,priority:2" json:"is_active"`
	CreatedAt             time.Time                                `json:"created_at"`
	UpdatedAt             time.Time                                `json:"updated_at"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	// sqlite compares timestamps as text, so every stored instant is UTC.
	r.ExpiresAt = r.ExpiresAt.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	r.ViewedAt = utcPtr(r.ViewedAt)
	r.ClickedAt = utcPtr(r.ClickedAt)
	r.UserFeedback.Date = utcPtr(r.UserFeedback.Date)
	return nil
}

type FeedbackInput struct {
	Rating    int
	IsHelpful *bool
	Text      string
}

func (f FeedbackInput) validate(prefix string) []error {
	var errs []error
	if f.Rating < MinFeedbackRating || f.Rating > MaxFeedbackRating {
		errs = append(errs, newValidationError(prefix+"rating",
			"must be between %d and %d, got %d", MinFeedbackRating, MaxFeedbackRating, f.Rating))
	}
	if err := validateMaxLen(prefix+"feedback_text", f.Text, MaxFeedbackTextLength); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// RecommendationInput carries everything the generation process hands over.
// Score is a pointer so a missing value can be told apart from 0.
type RecommendationInput struct {
	RequesterID           uuid.UUID
	RequesterRole         RequesterRole
	RecommendationKind    RecommendationKind
	RecommendedEntityID   uuid.UUID
	RecommendedEntityType EntityType
	ContextJobID          *uuid.UUID
	Score                 *float64
	Confidence            *float64
	AlgorithmVersion      string
	Reasons               []RecommendationReason
	UserFeedback          *FeedbackInput
	ExpiresAt             *time.Time
}

// NewRecommendation validates in and builds an active record. All field errors are
// joined into the returned error; no record is returned when any check fails.
func NewRecommendation(in RecommendationInput, now time.Time) (*Recommendation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now = now.UTC()
	confidence := DefaultConfidence
	if in.Confidence != nil {
		confidence = *in.Confidence
	}

	expiresAt := now.Add(in.RecommendationKind.DefaultTTL())
	if in.ExpiresAt != nil {
		expiresAt = in.ExpiresAt.UTC()
	}

	rec := &Recommendation{
		ID:                    uuid.New(),
		RequesterID:           in.RequesterID,
		RequesterRole:         in.RequesterRole,
		RecommendationKind:    in.RecommendationKind,
		RecommendedEntityID:   in.RecommendedEntityID,
		RecommendedEntityType: in.RecommendedEntityType,
		ContextJobID:          in.ContextJobID,
		Score:                 *in.Score,
		Confidence:            confidence,
		AlgorithmVersion:      in.AlgorithmVersion,
		Reasons:               datatypes.JSONSlice[RecommendationReason](append([]RecommendationReason{}, in.Reasons...)),
		ExpiresAt:             expiresAt,
		IsActive:              true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if in.UserFeedback != nil {
		rec.applyFeedback(*in.UserFeedback, now)
	}
	return rec, nil
}

func (in RecommendationInput) Validate() error {
	var errs []error

	if in.RequesterID == uuid.Nil {
		errs = append(errs, newValidationError("requester_id", "is required"))
	}
	if !in.RequesterRole.Valid() {
		errs = append(errs, newValidationError("requester_role", "must be one of candidate, recruiter, got %q", in.RequesterRole))
	}
	if !in.RecommendationKind.Valid() {
		errs = append(errs, newValidationError("recommendation_kind", "must be one of job_for_candidate, candidate_for_job, got %q", in.RecommendationKind))
	}
	if in.RecommendedEntityID == uuid.Nil {
		errs = append(errs, newValidationError("recommended_entity_id", "is required"))
	}
	if !in.RecommendedEntityType.Valid() {
		errs = append(errs, newValidationError("recommended_entity_type", "must be one of Job, Candidate, got %q", in.RecommendedEntityType))
	}
	if in.Score == nil {
		errs = append(errs, newValidationError("score", "is required"))
	} else if err := validateUnitInterval("score", *in.Score); err != nil {
		errs = append(errs, err)
	}
	if in.Confidence != nil {
		if err := validateUnitInterval("confidence", *in.Confidence); err != nil {
			errs = append(errs, err)
		}
	}
	if in.AlgorithmVersion == "" {
		errs = append(errs, newValidationError("algorithm_version", "is required"))
	}

	for i, reason := range in.Reasons {
		prefix := fmt.Sprintf("reasons[%d].", i)
		if !reason.Factor.Valid() {
			errs = append(errs, newValidationError(prefix+"factor", "unknown factor %q", reason.Factor))
		}
		if err := validateUnitInterval(prefix+"weight", reason.Weight); err != nil {
			errs = append(errs, err)
		}
		if err := validateUnitInterval(prefix+"score", reason.Score); err != nil {
			errs = append(errs, err)
		}
		if err := validateMaxLen(prefix+"description", reason.Description, MaxReasonDescriptionLength); err != nil {
			errs = append(errs, err)
		}
	}

	if in.UserFeedback != nil {
		errs = append(errs, in.UserFeedback.validate("user_feedback.")...)
	}

	if in.RecommendationKind.Valid() && in.RecommendedEntityType.Valid() &&
		in.RecommendationKind.EntityType() != in.RecommendedEntityType {
		errs = append(errs, &InconsistentEntityTypeError{Kind: in.RecommendationKind, EntityType: in.RecommendedEntityType})
	}

	return errors.Join(errs...)
}

// ComputeAggregateScore returns the weighted mean of the reason scores, or fallback when
// the weights sum to zero.
func ComputeAggregateScore(reasons []RecommendationReason, fallback float64) float64 {
	var weighted, total float64
	for _, r := range reasons {
		weighted += r.Weight * r.Score
		total += r.Weight
	}
	if total <= 0 {
		return fallback
	}
	return weighted / total
}

func (r *Recommendation) AggregateScore() float64 {
	return ComputeAggregateScore(r.Reasons, r.Score)
}

func (r *Recommendation) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r *Recommendation) IsEligibleForListing(now time.Time) bool {
	return r.IsActive && !r.IsExpired(now)
}

// MarkViewed latches the first view. It reports whether this call changed anything.
func (r *Recommendation) MarkViewed(now time.Time) bool {
	if r.IsViewed {
		return false
	}
	r.IsViewed = true
	r.ViewedAt = &now
	r.UpdatedAt = now
	return true
}

// MarkClicked latches the first click.
func (r *Recommendation) MarkClicked(now time.Time) bool {
	if r.IsClicked {
		return false
	}
	r.IsClicked = true
	r.ClickedAt = &now
	r.UpdatedAt = now
	return true
}

// SubmitFeedback replaces any earlier feedback.
func (r *Recommendation) SubmitFeedback(in FeedbackInput, now time.Time) error {
	if err := errors.Join(in.validate("")...); err != nil {
		return err
	}
	r.applyFeedback(in, now)
	return nil
}

func (r *Recommendation) applyFeedback(in FeedbackInput, now time.Time) {
	r.UserFeedback = UserFeedback{
		Rating:    in.Rating,
		IsHelpful: in.IsHelpful,
		Text:      in.Text,
		Date:      &now,
	}
	r.UpdatedAt = now
}

func (r *Recommendation) HasFeedback() bool {
	return r.UserFeedback.Rating != 0
}

// Deactivate moves the record into the terminal moderated state.
func (r *Recommendation) Deactivate(now time.Time) {
	r.IsActive = false
	r.UpdatedAt = now
}

// CheckInteractive reports why a record can no longer take user interaction.
func (r *Recommendation) CheckInteractive(now time.Time) error {
	if !r.IsActive {
		return ErrRecommendationInactive
	}
	if r.IsExpired(now) {
		return ErrRecommendationExpired
	}
	return nil
}
