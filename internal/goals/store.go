// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package goals tracks user-declared goals and append-only milestones.
// Milestones may reference a goal, but the goal is not required to exist
// when milestones are read back.
package goals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
)

// Store persists goals and milestones.
type Store struct {
	db *gorm.DB
}

// NewStore creates a goal/milestone store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AddGoal creates a goal in active status and returns its id.
func (s *Store) AddGoal(ctx context.Context, ownerKey, goalType, description string, targetDate *time.Time) (uint, error) {
	if strings.TrimSpace(description) == "" {
		return 0, fmt.Errorf("goal description cannot be empty")
	}

	goal := database.MnemosUserGoal{
		OwnerKey:    ownerKey,
		GoalType:    goalType,
		Description: description,
		TargetDate:  targetDate,
		Status:      database.GoalStatusActive,
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&goal).Error; err != nil {
		return 0, fmt.Errorf("failed to add goal: %w", err)
	}
	return goal.ID, nil
}

// ActiveGoals returns the owner's goals with active status, in storage
// order.
func (s *Store) ActiveGoals(ctx context.Context, ownerKey string) ([]database.MnemosUserGoal, error) {
	var rows []database.MnemosUserGoal
	err := s.db.WithContext(ctx).
		Where("owner_key = ? AND status = ?", ownerKey, database.GoalStatusActive).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active goals: %w", err)
	}
	return rows, nil
}

// SetGoalStatus updates a goal's status. Transitions are unrestricted among
// the three statuses; returns true iff a row was affected.
func (s *Store) SetGoalStatus(ctx context.Context, goalID uint, status string) (bool, error) {
	if !database.IsValidGoalStatus(status) {
		return false, fmt.Errorf("invalid goal status %q", status)
	}

	result := s.db.WithContext(ctx).
		Model(&database.MnemosUserGoal{}).
		Where("id = ?", goalID).
		Update("status", status)
	if result.Error != nil {
		return false, fmt.Errorf("failed to set goal status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Milestone holds the attributes of a milestone to record.
type Milestone struct {
	OwnerKey    string
	Action      string
	Status      string
	Emotion     string
	Description string
	GoalID      *uint
}

// AddMilestone appends a milestone and returns its id. Milestones are never
// mutated or deleted after creation.
func (s *Store) AddMilestone(ctx context.Context, m Milestone) (uint, error) {
	if strings.TrimSpace(m.Action) == "" {
		return 0, fmt.Errorf("milestone action cannot be empty")
	}

	row := database.MnemosUserMilestone{
		OwnerKey:    m.OwnerKey,
		GoalID:      m.GoalID,
		Action:      m.Action,
		Status:      m.Status,
		Emotion:     m.Emotion,
		Description: m.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to add milestone: %w", err)
	}
	return row.ID, nil
}

// MilestoneWithGoal is a milestone enriched with its parent goal's
// description. GoalDescription is nil when the milestone has no goal or the
// goal no longer exists.
type MilestoneWithGoal struct {
	database.MnemosUserMilestone
	GoalDescription *string `json:"goal_description,omitempty"`
}

// RecentMilestones returns the owner's newest milestones, creation time
// descending, left-joined with their parent goals.
func (s *Store) RecentMilestones(ctx context.Context, ownerKey string, limit int) ([]MilestoneWithGoal, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []MilestoneWithGoal
	err := s.db.WithContext(ctx).
		Table("mnemos_user_milestones").
		Select("mnemos_user_milestones.*, mnemos_user_goals.description AS goal_description").
		Joins("LEFT JOIN mnemos_user_goals ON mnemos_user_goals.id = mnemos_user_milestones.goal_id").
		Where("mnemos_user_milestones.owner_key = ?", ownerKey).
		Order("mnemos_user_milestones.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent milestones: %w", err)
	}
	return rows, nil
}
