package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Username     string         `gorm:"size:255" json:"username,omitempty"`
	Email        string         `gorm:"size:255;not null;unique" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Images       []Image        `json:"-"`
}

// Transformation describes one applied image operation, in application order.
type Transformation struct {
	Type    string `json:"type"`
	Details string `json:"details,omitempty"`
}

type Transformations []Transformation

type Image struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"userId"`
	User      *User          `json:"user,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`

	OriginalFileName   string `gorm:"not null" json:"originalFileName"`
	OriginalKey        string `gorm:"uniqueIndex;not null" json:"storageFileNameOriginal"`
	ProcessedKey       string `gorm:"uniqueIndex;not null" json:"storageFileNameProcessed"`
	OriginalMimeType   string `gorm:"not null" json:"mimeTypeOriginal"`
	OriginalSizeBytes  int64  `gorm:"not null" json:"sizeOriginalBytes"`
	ProcessedMimeType  string `json:"mimeTypeProcessed,omitempty"`
	ProcessedSizeBytes int64  `json:"sizeProcessedBytes,omitempty"`

	AppliedTransformations Transformations `gorm:"serializer:json" json:"appliedTransformations"`
}
