package dto

// CreateCampaignRequest starts a new draft campaign (wizard step 1).
type CreateCampaignRequest struct {
	Title           string `json:"title" validate:"required,max=120"`
	Category        string `json:"category" validate:"required"`
	GoalAmountCents int64  `json:"goalAmountCents" validate:"required,gt=0"`
	Currency        string `json:"currency" validate:"required,len=3"`
}

// UpdateCampaignRequest saves one wizard step of a draft. Only the fields of
// the submitted step are populated; nil fields are left untouched.
type UpdateCampaignRequest struct {
	WizardStep      int     `json:"wizardStep" validate:"required,min=1,max=4"`
	Title           *string `json:"title" validate:"omitempty,max=120"`
	Summary         *string `json:"summary" validate:"omitempty,max=500"`
	Story           *string `json:"story"`
	Category        *string `json:"category"`
	GoalAmountCents *int64  `json:"goalAmountCents" validate:"omitempty,gt=0"`
	Currency        *string `json:"currency" validate:"omitempty,len=3"`
	CoverImageURL   *string `json:"coverImageUrl" validate:"omitempty,url"`
	LegalEntityID   *string `json:"legalEntityId"`
}

// CampaignQuery mirrors supported listing filters.
type CampaignQuery struct {
	Status string
	Search string
	Limit  int
	Offset int
}
