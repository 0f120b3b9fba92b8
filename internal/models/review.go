package models

import (
	"time"
)

// Review is unique per (author, title); the composite index is what
// serialises concurrent attempts, not an application-side lookup.
type Review struct {
	ID       uint      `gorm:"primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	Score    int       `gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10"`
	AuthorID uint      `gorm:"not null;uniqueIndex:idx_review_author_title"`
	TitleID  uint      `gorm:"not null;uniqueIndex:idx_review_author_title;index"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`

	// Relations
	Author *User  `gorm:"constraint:OnDelete:CASCADE"`
	Title  *Title `gorm:"constraint:OnDelete:CASCADE"`
}

type Comment struct {
	ID       uint      `gorm:"primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	AuthorID uint      `gorm:"not null;index"`
	ReviewID uint      `gorm:"not null;index"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`

	// Relations
	Author *User   `gorm:"constraint:OnDelete:CASCADE"`
	Review *Review `gorm:"constraint:OnDelete:CASCADE"`
}
