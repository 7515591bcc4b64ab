package dto

// CreateDonationRequest records a completed checkout against a campaign.
// The payment itself is processed externally; paymentRef identifies it.
type CreateDonationRequest struct {
	CampaignID  string `json:"campaignId" validate:"required"`
	DonorName   string `json:"donorName" validate:"required_unless=Anonymous true"`
	DonorEmail  string `json:"donorEmail" validate:"required,email"`
	AmountCents int64  `json:"amountCents" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Message     string `json:"message" validate:"omitempty,max=500"`
	Anonymous   bool   `json:"anonymous"`
	PaymentRef  string `json:"paymentRef" validate:"required"`
}

// DonationReceiptResponse carries the signed download URL for a rendered receipt.
type DonationReceiptResponse struct {
	DonationID  string `json:"donationId"`
	DownloadURL string `json:"downloadUrl"`
}
