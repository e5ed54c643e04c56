// internal/models/board.go
package models

import (
	"github.com/google/uuid"
)

type Post struct {
	BaseModel
	AuthorID  uuid.UUID  `json:"author_id" gorm:"type:uuid;not null;index"`
	CourseID  *uuid.UUID `json:"course_id,omitempty" gorm:"type:uuid;index"`
	Title     string     `json:"title" gorm:"size:255;not null"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	Category  string     `json:"category" gorm:"size:50;index"`
	ViewCount int        `json:"view_count" gorm:"default:0"`

	// Relationships
	Author   User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Course   *Course   `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PostID"`
}

type Comment struct {
	BaseModel
	PostID   uuid.UUID  `json:"post_id" gorm:"type:uuid;not null;index"`
	AuthorID uuid.UUID  `json:"author_id" gorm:"type:uuid;not null"`
	ParentID *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	Content  string     `json:"content" gorm:"type:text;not null"`

	// Relationships
	Post    Post      `json:"post,omitempty" gorm:"foreignKey:PostID"`
	Author  User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Replies []Comment `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
}
