package models

import "time"

// NotificationAction tags the event that produced a notification.
type NotificationAction string

const (
	NotificationActionSignIn           NotificationAction = "SIGN_IN"
	NotificationActionRegistration     NotificationAction = "REGISTRATION"
	NotificationActionPeriodTransition NotificationAction = "PERIOD_TRANSITION"
	NotificationActionPasswordReset    NotificationAction = "PASSWORD_RESET"
)

// Notification is a per-recipient message produced as a side effect of key
// actions. Only the read flag is ever mutated.
type Notification struct {
	ID          string             `db:"id" json:"id"`
	RecipientID string             `db:"recipient_id" json:"recipient_id"`
	ActionType  NotificationAction `db:"action_type" json:"action_type"`
	Title       string             `db:"title" json:"title"`
	Message     string             `db:"message" json:"message"`
	Read        bool               `db:"read" json:"read"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
}

// NotificationFilter scopes notification listings to a recipient.
type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Page        int
	PageSize    int
}
