// internal/models/live_session.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type LiveSession struct {
	BaseModel
	CourseID     uuid.UUID     `json:"course_id" gorm:"type:uuid;not null;index"`
	InstructorID uuid.UUID     `json:"instructor_id" gorm:"type:uuid;not null;index"`
	Title        string        `json:"title" gorm:"size:255;not null"`
	Description  string        `json:"description" gorm:"type:text"`
	RoomName     string        `json:"room_name" gorm:"uniqueIndex;size:100;not null"`
	ScheduledAt  time.Time     `json:"scheduled_at" gorm:"not null;index"`
	StartedAt    *time.Time    `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at"`
	Duration     int           `json:"duration"` // seconds, computed on end
	Status       SessionStatus `json:"status" gorm:"type:varchar(20);default:'scheduled';index"`

	// Relationships
	Course       Course               `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Instructor   User                 `json:"instructor,omitempty" gorm:"foreignKey:InstructorID"`
	Participants []SessionParticipant `json:"participants,omitempty" gorm:"foreignKey:SessionID"`
	ChatMessages []SessionChatMessage `json:"chat_messages,omitempty" gorm:"foreignKey:SessionID"`
	Questions    []SessionQuestion    `json:"questions,omitempty" gorm:"foreignKey:SessionID"`
	Recordings   []SessionRecording   `json:"recordings,omitempty" gorm:"foreignKey:SessionID"`
}

type SessionParticipant struct {
	BaseModel
	SessionID uuid.UUID  `json:"session_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Identity  string     `json:"identity" gorm:"size:100;not null"` // LiveKit participant identity
	JoinedAt  time.Time  `json:"joined_at" gorm:"not null"`
	LeftAt    *time.Time `json:"left_at"`

	Session LiveSession `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	User    User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type SessionChatMessage struct {
	BaseModel
	SessionID uuid.UUID `json:"session_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`

	Session LiveSession `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	User    User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type SessionQuestion struct {
	BaseModel
	SessionID uuid.UUID `json:"session_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Answered  bool      `json:"answered" gorm:"default:false"`
	Answer    string    `json:"answer,omitempty" gorm:"type:text"`

	Session LiveSession `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	User    User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// SessionRecording is produced asynchronously by LiveKit egress.
type SessionRecording struct {
	BaseModel
	SessionID uuid.UUID       `json:"session_id" gorm:"type:uuid;not null;index"`
	EgressID  string          `json:"egress_id" gorm:"uniqueIndex;size:100"`
	Status    RecordingStatus `json:"status" gorm:"type:varchar(20);default:'processing';index"`
	S3Key     string          `json:"s3_key" gorm:"size:500"`
	FileURL   string          `json:"file_url" gorm:"size:500"`
	Duration  int             `json:"duration"` // seconds
	FileSize  int64           `json:"file_size"`

	Session LiveSession `json:"session,omitempty" gorm:"foreignKey:SessionID"`
}
