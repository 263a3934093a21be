package model

import (
	"time"
)

// BaseModel handles the numeric ID and standard audit trail columns
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Audit user tracking
	CreatedBy string `gorm:"type:varchar(100)" json:"createdBy,omitempty"`
	UpdatedBy string `gorm:"type:varchar(100)" json:"updatedBy,omitempty"`
}

// Paging normalises page/limit query values.
type Paging struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

func (p Paging) Normalize() Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Paging) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is a generic paged result.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}
