// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"time"
)

// MnemosMemory represents a discrete fact extracted from a conversation.
// Rows are never hard-deleted by this layer; IsActive is the soft-delete flag.
type MnemosMemory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerScope   string    `gorm:"index:idx_memories_owner_active;not null" json:"owner_scope"`
	Namespace    string    `gorm:"index:idx_memories_namespace_active;not null;default:user" json:"namespace"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	ContentHash  string    `gorm:"index;not null" json:"content_hash"`
	DedupKey     string    `gorm:"uniqueIndex;not null" json:"-"` // scope-composed dedup key, see memorystore
	MemoryType   string    `json:"memory_type"`
	MetadataJSON string    `gorm:"type:text" json:"metadata_json"`
	SourceType   string    `gorm:"default:explicit" json:"source_type"`
	Confidence   float64   `gorm:"default:1.0" json:"confidence"`
	Sensitivity  string    `json:"sensitivity"` // empty is treated as "low"
	Evidence     string    `gorm:"type:text" json:"evidence"`
	IsActive     bool      `gorm:"index:idx_memories_owner_active;index:idx_memories_namespace_active;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for MnemosMemory
func (MnemosMemory) TableName() string {
	return "mnemos_memories"
}

// MnemosVector stores a raw embedding vector keyed by an index-local id.
// The vector id is opaque to callers; this layer assigns a UUID on insert.
type MnemosVector struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	VectorID   string    `gorm:"uniqueIndex;not null" json:"vector_id"`
	Embedding  []byte    `gorm:"type:blob;not null" json:"-"` // float32 little-endian
	Dimensions int       `gorm:"not null" json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for MnemosVector
func (MnemosVector) TableName() string {
	return "mnemos_vectors"
}

// MnemosVectorMemoryMap links an index-local vector id to a memory row.
// Created in the same transaction as the vector row; 1:1 in both directions.
type MnemosVectorMemoryMap struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	VectorID string `gorm:"uniqueIndex;not null" json:"vector_id"`
	MemoryID uint   `gorm:"index;not null" json:"memory_id"`

	// Foreign key relationship. No delete cascade: memories are only ever
	// soft-deleted, so mapping rows outlive the is_active flip.
	Memory MnemosMemory `gorm:"foreignKey:MemoryID" json:"-"`
}

// TableName specifies the table name for MnemosVectorMemoryMap
func (MnemosVectorMemoryMap) TableName() string {
	return "mnemos_vector_memory_map"
}

// MnemosProfile holds the versioned per-user profile document.
type MnemosProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerKey  string    `gorm:"uniqueIndex;not null" json:"owner_key"`
	DataJSON  string    `gorm:"type:text;not null" json:"data_json"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for MnemosProfile
func (MnemosProfile) TableName() string {
	return "mnemos_profiles"
}

// MnemosUserGoal represents a user-declared goal.
type MnemosUserGoal struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OwnerKey    string     `gorm:"index:idx_goals_owner_status;not null" json:"owner_key"`
	GoalType    string     `json:"goal_type"`
	Description string     `gorm:"type:text;not null" json:"description"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Status      string     `gorm:"index:idx_goals_owner_status;not null;default:active" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName specifies the table name for MnemosUserGoal
func (MnemosUserGoal) TableName() string {
	return "mnemos_user_goals"
}

// MnemosUserMilestone is an append-only logged life-event, optionally linked
// to a goal. The goal need not exist when the milestone is read back.
type MnemosUserMilestone struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerKey    string    `gorm:"index:idx_milestones_owner_created;not null" json:"owner_key"`
	GoalID      *uint     `gorm:"index" json:"goal_id,omitempty"`
	Action      string    `gorm:"not null" json:"action"`
	Status      string    `json:"status"`
	Emotion     string    `json:"emotion,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"index:idx_milestones_owner_created" json:"created_at"`
}

// TableName specifies the table name for MnemosUserMilestone
func (MnemosUserMilestone) TableName() string {
	return "mnemos_user_milestones"
}

// SourceType constants for memories
const (
	SourceTypeExplicit = "explicit"
	SourceTypeInferred = "inferred"
)

// Sensitivity constants for memories
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
)

// ValidSensitivityLevels returns all valid sensitivity levels
func ValidSensitivityLevels() []string {
	return []string{
		SensitivityLow,
		SensitivityMedium,
		SensitivityHigh,
	}
}

// IsValidSensitivityLevel checks if a sensitivity level is valid
func IsValidSensitivityLevel(level string) bool {
	for _, valid := range ValidSensitivityLevels() {
		if level == valid {
			return true
		}
	}
	return false
}

// GoalStatus constants for user goals
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusAbandoned = "abandoned"
)

// ValidGoalStatuses returns all valid goal statuses
func ValidGoalStatuses() []string {
	return []string{
		GoalStatusActive,
		GoalStatusCompleted,
		GoalStatusAbandoned,
	}
}

// IsValidGoalStatus checks if a goal status is valid
func IsValidGoalStatus(status string) bool {
	for _, valid := range ValidGoalStatuses() {
		if status == valid {
			return true
		}
	}
	return false
}

// Namespace constants for memory partitioning
const (
	NamespaceUser   = "user"
	NamespaceGlobal = "global"
)
