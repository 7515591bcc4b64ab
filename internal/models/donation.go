package models

import "time"

// DonationStatus mirrors what the external payment processor reports.
type DonationStatus string

const (
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusRefunded  DonationStatus = "refunded"
)

// Donation records a pledge against a published campaign. Payment processing
// itself happens in an external provider; only the reference is stored here.
type Donation struct {
	ID          string         `db:"id" json:"id"`
	CampaignID  string         `db:"campaign_id" json:"campaignId"`
	DonorUserID *string        `db:"donor_user_id" json:"donorUserId,omitempty"`
	DonorName   string         `db:"donor_name" json:"donorName"`
	DonorEmail  string         `db:"donor_email" json:"-"`
	AmountCents int64          `db:"amount_cents" json:"amountCents"`
	Currency    string         `db:"currency" json:"currency"`
	Message     *string        `db:"message" json:"message,omitempty"`
	Anonymous   bool           `db:"anonymous" json:"anonymous"`
	PaymentRef  string         `db:"payment_ref" json:"paymentRef"`
	Status      DonationStatus `db:"status" json:"status"`
	ReceiptPath *string        `db:"receipt_path" json:"-"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// DonationFilter constrains donation listing queries.
type DonationFilter struct {
	CampaignID string
	Limit      int
	Offset     int
}
