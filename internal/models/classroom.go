package models

import "time"

// Classroom is the single live-classroom record shown to every student:
// the currently active meet link and whether class is in session.
type Classroom struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ActiveMeetLink *string   `json:"active_meet_link" gorm:"size:500"`
	DetectedTitle  *string   `json:"detected_title" gorm:"size:200"`
	IsLive         bool      `json:"is_live" gorm:"not null;default:false"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Classroom) TableName() string {
	return "classrooms"
}

// MeetLink is a saved entry in the admin's link library.
type MeetLink struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Label     string    `json:"label" gorm:"not null;size:100"`
	URL       string    `json:"url" gorm:"not null;size:500"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
}

func (MeetLink) TableName() string {
	return "meet_links"
}
