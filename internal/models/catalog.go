package models

type Category struct {
	ID   uint   `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
}

type Genre struct {
	ID   uint   `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
}

// Title is a reviewable work. Its rating is never stored; see
// services.TitleService for how it is derived on read.
type Title struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:256;not null;index"`
	Year        int       `gorm:"not null;index"`
	Description string    `gorm:"type:text"`
	CategoryID  *uint     `gorm:"index"`
	Category    *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Genres      []Genre   `gorm:"many2many:title_genres;constraint:OnDelete:CASCADE"`
}
