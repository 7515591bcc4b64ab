package dto

// CreateLegalEntityRequest registers a new legal entity.
type CreateLegalEntityRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Type         string  `json:"type" validate:"required"`
	TaxID        string  `json:"taxId" validate:"required"`
	Country      string  `json:"country" validate:"required,len=2"`
	Address      *string `json:"address"`
	ContactEmail string  `json:"contactEmail" validate:"required,email"`
	ContactPhone *string `json:"contactPhone"`
}

// UpdateLegalEntityRequest updates an existing legal entity.
type UpdateLegalEntityRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Type         string  `json:"type" validate:"required"`
	TaxID        string  `json:"taxId" validate:"required"`
	Country      string  `json:"country" validate:"required,len=2"`
	Address      *string `json:"address"`
	ContactEmail string  `json:"contactEmail" validate:"required,email"`
	ContactPhone *string `json:"contactPhone"`
	Active       *bool   `json:"active"`
}
