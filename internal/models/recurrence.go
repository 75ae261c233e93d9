package models

import (
	"time"
)

// Cadence represents how often a recurring post repeats
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// Valid reports whether the cadence is one of the supported values
func (c Cadence) Valid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
		return true
	}
	return false
}

// RecurrencePolicy governs automatic re-creation of a ScheduledPost.
// ScheduledPostID always references the current pending occurrence and is
// repointed to the freshly cloned post on every rollover.
type RecurrencePolicy struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ScheduledPostID uint       `gorm:"index;not null" json:"scheduled_post_id"`
	Cadence         Cadence    `gorm:"not null" json:"cadence"`
	TimeOfDay       string     `gorm:"not null" json:"time_of_day"` // "HH:MM", local to Timezone
	Until           *time.Time `json:"until"`
	Timezone        string     `gorm:"default:'UTC'" json:"timezone"`
	LastRunAt       *time.Time `json:"last_run_at"`
	NextRunAt       *time.Time `json:"next_run_at"`
	IsActive        bool       `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Exhausted reports whether the policy's cutoff has passed
func (r *RecurrencePolicy) Exhausted(now time.Time) bool {
	return r.Until != nil && r.Until.Before(now)
}
