// internal/models/admin.go
package models

import (
	"github.com/google/uuid"
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:255;not null"`
	ResourceType string     `json:"resource_type" gorm:"size:50;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"size:500"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type Notification struct {
	BaseModel
	UserID              uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Type                string     `json:"type" gorm:"size:50;not null;index"`
	Title               string     `json:"title" gorm:"size:255;not null"`
	Message             string     `json:"message" gorm:"type:text"`
	Read                bool       `json:"read" gorm:"default:false;index"`
	RelatedResourceType string     `json:"related_resource_type,omitempty" gorm:"size:50"`
	RelatedResourceID   *uuid.UUID `json:"related_resource_id,omitempty" gorm:"type:uuid"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
