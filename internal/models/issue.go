package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryInfrastructure  Category = "infrastructure"
	CategorySafety          Category = "safety"
	CategoryEnvironment     Category = "environment"
	CategoryMaintenance     Category = "maintenance"
	CategoryAccessibility   Category = "accessibility"
	CategoryRoadMaintenance Category = "road_maintenance"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryInfrastructure,
	CategorySafety,
	CategoryEnvironment,
	CategoryMaintenance,
	CategoryAccessibility,
	CategoryRoadMaintenance,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusClosed}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Open reports whether the issue still needs attention.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusInProgress
}

// Issue is a reported community problem.
type Issue struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    Category  `gorm:"type:varchar(32);not null;index" json:"category"`
	Priority    Priority  `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`
	Status      Status    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `gorm:"size:300" json:"address"`
	ImageURL    *string   `json:"image_url,omitempty"`
	ReporterID  *string   `gorm:"type:varchar(36);index" json:"reporter_id"` // nil when anonymous
	Reporter    *Profile  `gorm:"foreignKey:ReporterID;constraint:OnDelete:SET NULL;" json:"reporter,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 查询时填充，不落库
	UpvoteCount   int64 `gorm:"-" json:"upvote_count"`
	CommentCount  int64 `gorm:"-" json:"comment_count"`
	BookmarkCount int64 `gorm:"-" json:"bookmark_count"`
	Upvoted       bool  `gorm:"-" json:"upvoted"`
	Bookmarked    bool  `gorm:"-" json:"bookmarked"`
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// OwnedBy reports whether userID reported the issue. Anonymous issues have no owner.
func (i *Issue) OwnedBy(userID string) bool {
	return userID != "" && i.ReporterID != nil && *i.ReporterID == userID
}

// ReporterName is the display name used by search and rendering.
func (i *Issue) ReporterName() string {
	if i.Reporter == nil {
		return ""
	}
	return i.Reporter.Name
}
