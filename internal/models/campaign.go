package models

import "time"

// CampaignStatus captures the campaign publication lifecycle.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusPublished CampaignStatus = "published"
	CampaignStatusClosed    CampaignStatus = "closed"
)

// Campaign represents a fundraising project owned by an organizer.
type Campaign struct {
	ID                 string             `db:"id" json:"id"`
	OrganizerID        string             `db:"organizer_id" json:"organizerId"`
	Title              string             `db:"title" json:"title"`
	Summary            string             `db:"summary" json:"summary"`
	Story              string             `db:"story" json:"story"`
	Category           string             `db:"category" json:"category"`
	GoalAmountCents    int64              `db:"goal_amount_cents" json:"goalAmountCents"`
	RaisedAmountCents  int64              `db:"raised_amount_cents" json:"raisedAmountCents"`
	Currency           string             `db:"currency" json:"currency"`
	CoverImageURL      *string            `db:"cover_image_url" json:"coverImageUrl,omitempty"`
	LegalEntityID      *string            `db:"legal_entity_id" json:"legalEntityId,omitempty"`
	Status             CampaignStatus     `db:"status" json:"status"`
	VerificationStatus VerificationStatus `db:"verification_status" json:"verificationStatus"`
	WizardStep         int                `db:"wizard_step" json:"wizardStep"`
	PublishedAt        *time.Time         `db:"published_at" json:"publishedAt,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updatedAt"`
}

// CampaignFilter constrains campaign listing queries.
type CampaignFilter struct {
	OrganizerID          string
	Status               CampaignStatus
	VerificationStatuses []VerificationStatus
	Search               string
	Limit                int
	Offset               int
}
