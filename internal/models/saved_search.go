package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaxSavedSearchNameLength     = 100
	MaxSavedSearchKeywordsLength = 200
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type NotificationFrequency string

const (
	FrequencyImmediate NotificationFrequency = "immediate"
	FrequencyDaily     NotificationFrequency = "daily"
	FrequencyWeekly    NotificationFrequency = "weekly"
	FrequencyBiWeekly  NotificationFrequency = "bi_weekly"
)

var frequencyThresholds = map[NotificationFrequency]time.Duration{
	FrequencyImmediate: 30 * time.Minute,
	FrequencyDaily:     24 * time.Hour,
	FrequencyWeekly:    168 * time.Hour,
	FrequencyBiWeekly:  336 * time.Hour,
}

// Threshold is the minimum time between two alerts at this frequency.
func (f NotificationFrequency) Threshold() (time.Duration, bool) {
	d, ok := frequencyThresholds[f]
	return d, ok
}

// NotificationFrequencies lists every supported frequency, shortest first.
func NotificationFrequencies() []NotificationFrequency {
	return []NotificationFrequency{FrequencyImmediate, FrequencyDaily, FrequencyWeekly, FrequencyBiWeekly}
}

func (f NotificationFrequency) Valid() bool {
	_, ok := frequencyThresholds[f]
	return ok
}

func ParseNotificationFrequency(s string) (NotificationFrequency, error) {
	f := NotificationFrequency(strings.TrimSpace(s))
	if !f.Valid() {
		return "", newValidationError("notification_frequency", "must be one of immediate, daily, weekly, bi_weekly, got %q", s)
	}
	return f, nil
}

// AlertConfig is the part of a saved search the alert scheduler looks at.
type AlertConfig struct {
	EnableAlerts          bool
	NotificationFrequency NotificationFrequency
	LastNotifiedAt        *time.Time
}

// IsNotificationDue decides whether an alert should fire at now. Unknown frequencies
// never fire.
func IsNotificationDue(cfg AlertConfig, now time.Time) bool {
	if !cfg.EnableAlerts {
		return false
	}
	if cfg.LastNotifiedAt == nil {
		return true
	}
	threshold, ok := cfg.NotificationFrequency.Threshold()
	if !ok {
		return false
	}
	hoursSince := now.Sub(*cfg.LastNotifiedAt).Hours()
	return hoursSince >= threshold.Hours()
}

// NextNotificationAt is the earliest time an alert may fire again. It is false when
// alerts are off or the frequency is unknown.
func NextNotificationAt(cfg AlertConfig) (time.Time, bool) {
	if !cfg.EnableAlerts {
		return time.Time{}, false
	}
	threshold, ok := cfg.NotificationFrequency.Threshold()
	if !ok {
		return time.Time{}, false
	}
	if cfg.LastNotifiedAt == nil {
		return time.Time{}, true
	}
	return cfg.LastNotifiedAt.Add(threshold), true
}

type SavedSearch struct {
	ID                    uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	UserID                uuid.UUID             `gorm:"type:uuid;not null;index" json:"user_id"`
	Name                  string                `gorm:"type:varchar(100);not null" json:"name"`
	Keywords              string                `gorm:"type:varchar(200)" json:"keywords"`
	Filters               datatypes.JSONMap     `json:"filters,omitempty"`
	Color                 *string               `gorm:"type:varchar(7)" json:"color,omitempty"`
	EnableAlerts          bool                  `gorm:"not null;index:idx_saved_searches_alerts,priority:1" json:"enable_alerts"`
	NotificationFrequency NotificationFrequency `gorm:"type:varchar(16);not null" json:"notification_frequency"`
	LastNotifiedAt        *time.Time            `gorm:"index:idx_saved_searches_alerts,priority:2" json:"last_notified_at,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

func (SavedSearch) TableName() string {
	return "saved_searches"
}

func (s *SavedSearch) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	s.LastNotifiedAt = utcPtr(s.LastNotifiedAt)
	return nil
}

func (s *SavedSearch) AlertConfig() AlertConfig {
	return AlertConfig{
		EnableAlerts:          s.EnableAlerts,
		NotificationFrequency: s.NotificationFrequency,
		LastNotifiedAt:        s.LastNotifiedAt,
	}
}

type SavedSearchInput struct {
	UserID                uuid.UUID
	Name                  string
	Keywords              string
	Filters               map[string]interface{}
	Color                 *string
	EnableAlerts          *bool
	NotificationFrequency string
}

// NewSavedSearch validates in. Alerts default to enabled with a daily cadence.
func NewSavedSearch(in SavedSearchInput, now time.Time) (*SavedSearch, error) {
	var errs []error

	if in.UserID == uuid.Nil {
		errs = append(errs, newValidationError("user_id", "is required"))
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs = append(errs, newValidationError("name", "is required"))
	} else if err := validateMaxLen("name", name, MaxSavedSearchNameLength); err != nil {
		errs = append(errs, err)
	}
	if err := validateMaxLen("keywords", in.Keywords, MaxSavedSearchKeywordsLength); err != nil {
		errs = append(errs, err)
	}
	if err := validateOptionalPattern("color", in.Color, colorPattern); err != nil {
		errs = append(errs, err)
	}

	frequency := FrequencyDaily
	if in.NotificationFrequency != "" {
		f, err := ParseNotificationFrequency(in.NotificationFrequency)
		if err != nil {
			errs = append(errs, err)
		}
		frequency = f
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	enable := true
	if in.EnableAlerts != nil {
		enable = *in.EnableAlerts
	}

	var color *string
	if in.Color != nil && *in.Color != "" {
		c := *in.Color
		color = &c
	}

	return &SavedSearch{
		ID:                    uuid.New(),
		UserID:                in.UserID,
		Name:                  name,
		Keywords:              in.Keywords,
		Filters:               datatypes.JSONMap(in.Filters),
		Color:                 color,
		EnableAlerts:          enable,
		NotificationFrequency: frequency,
		CreatedAt:             now.UTC(),
		UpdatedAt:             now.UTC(),
	}, nil
}
