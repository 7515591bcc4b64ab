package models

import "time"

// NotificationType enumerates the in-app notification categories.
type NotificationType string

const (
	NotificationVerificationApproved NotificationType = "VERIFICATION_APPROVED"
	NotificationVerificationRejected NotificationType = "VERIFICATION_REJECTED"
	NotificationVerificationRevoked  NotificationType = "VERIFICATION_REVOKED"
	NotificationVerificationReceived NotificationType = "VERIFICATION_RECEIVED"
	NotificationDonationReceived     NotificationType = "DONATION_RECEIVED"
	NotificationReceiptReady         NotificationType = "RECEIPT_READY"
)

// Notification is an in-app notification record. Delivery through external
// channels (email, SMS) is handled by a separate provider.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"userId"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Body      string           `db:"body" json:"body"`
	RefType   *string          `db:"ref_type" json:"refType,omitempty"`
	RefID     *string          `db:"ref_id" json:"refId,omitempty"`
	Read      bool             `db:"read" json:"read"`
	ReadAt    *time.Time       `db:"read_at" json:"readAt,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

// NotificationFilter constrains notification listing queries.
type NotificationFilter struct {
	UserID     string
	Type       NotificationType
	UnreadOnly bool
	Limit      int
	Offset     int
}
