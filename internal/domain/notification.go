package domain

import "github.com/google/uuid"

// NotificationType classifies a user notification.
type NotificationType string

// NotificationSystem is used for every dispatch notification.
const NotificationSystem NotificationType = "SYSTEM"

// Notification is a fire-and-forget message to one user.
type Notification struct {
	UserID uuid.UUID        `json:"userId"`
	Type   NotificationType `json:"type"`
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Data   map[string]any   `json:"data,omitempty"`
}
