package models

import "time"

type ReasonRequest struct {
	Factor      string  `json:"factor" validate:"required"`
	Weight      float64 `json:"weight"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

type FeedbackRequest struct {
	Rating       int    `json:"rating" validate:"required"`
	IsHelpful    *bool  `json:"is_helpful"`
	FeedbackText string `json:"feedback_text"`
}

type CreateRecommendationRequest struct {
	RequesterID           string           `json:"requester_id" validate:"required,uuid"`
	RequesterRole         string           `json:"requester_role" validate:"required"`
	RecommendationKind    string           `json:"recommendation_kind" validate:"required"`
	RecommendedEntityID   string           `json:"recommended_entity_id" validate:"required,uuid"`
	RecommendedEntityType string           `json:"recommended_entity_type" validate:"required"`
	ContextJobID          *string          `json:"context_job_id" validate:"omitempty,uuid"`
	Score                 *float64         `json:"score" validate:"required"`
	Confidence            *float64         `json:"confidence"`
	AlgorithmVersion      string           `json:"algorithm_version" validate:"required"`
	Reasons               []ReasonRequest  `json:"reasons" validate:"dive"`
	UserFeedback          *FeedbackRequest `json:"user_feedback"`
	ExpiresAt             *time.Time       `json:"expires_at"`
}

type RecommendationResponse struct {
	*Recommendation
	UserFeedback   *UserFeedback `json:"user_feedback"`
	AggregateScore float64       `json:"aggregate_score"`
	IsExpired      bool          `json:"is_expired"`
}

func NewRecommendationResponse(r *Recommendation, now time.Time) RecommendationResponse {
	resp := RecommendationResponse{
		Recommendation: r,
		AggregateScore: r.AggregateScore(),
		IsExpired:      r.IsExpired(now),
	}
	if r.HasFeedback() {
		fb := r.UserFeedback
		resp.UserFeedback = &fb
	}
	return resp
}

type RecommendationListResponse struct {
	RequesterID string                   `json:"requester_id"`
	Count       int                      `json:"count"`
	Items       []RecommendationResponse `json:"items"`
}

type CreateSavedSearchRequest struct {
	UserID                string                 `json:"user_id" validate:"required,uuid"`
	Name                  string                 `json:"name" validate:"required"`
	Keywords              string                 `json:"keywords"`
	Filters               map[string]interface{} `json:"filters"`
	Color                 *string                `json:"color"`
	EnableAlerts          *bool                  `json:"enable_alerts"`
	NotificationFrequency string                 `json:"notification_frequency"`
}

type UpdateAlertsRequest struct {
	EnableAlerts          *bool   `json:"enable_alerts"`
	NotificationFrequency *string `json:"notification_frequency"`
}

type AlertStatusResponse struct {
	ID                    string     `json:"id"`
	EnableAlerts          bool       `json:"enable_alerts"`
	NotificationFrequency string     `json:"notification_frequency"`
	LastNotifiedAt        *time.Time `json:"last_notified_at,omitempty"`
	IsDue                 bool       `json:"is_due"`
	NextEligibleAt        *time.Time `json:"next_eligible_at,omitempty"`
}
