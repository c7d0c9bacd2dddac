package model

import "time"

// Notification is a message delivered by the notification service.
type Notification struct {
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Title     string    `json:"title" yaml:"title"`
	Message   string    `json:"message" yaml:"message"`
	ID        int       `json:"id" yaml:"id"`
	UserID    int       `json:"userId" yaml:"userId"`
	Read      bool      `json:"read" yaml:"read"`
}
