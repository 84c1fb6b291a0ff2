// internal/models/notification.go
package models

// PushNotification is one publish to a push topic.
type PushNotification struct {
	Topic string            `json:"topic"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// ReminderResult is the per-record outcome of a reminder sweep.
type ReminderResult struct {
	ID     string `json:"id"`
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}
