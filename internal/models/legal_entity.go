package models

import "time"

// LegalEntityType enumerates supported entity categories.
type LegalEntityType string

const (
	LegalEntityTypeNonprofit  LegalEntityType = "NONPROFIT"
	LegalEntityTypeCompany    LegalEntityType = "COMPANY"
	LegalEntityTypeIndividual LegalEntityType = "INDIVIDUAL"
)

// LegalEntity is the registered entity a campaign can be attached to.
type LegalEntity struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Type         LegalEntityType `db:"type" json:"type"`
	TaxID        string          `db:"tax_id" json:"taxId"`
	Country      string          `db:"country" json:"country"`
	Address      *string         `db:"address" json:"address,omitempty"`
	ContactEmail string          `db:"contact_email" json:"contactEmail"`
	ContactPhone *string         `db:"contact_phone" json:"contactPhone,omitempty"`
	Active       bool            `db:"active" json:"active"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// LegalEntityFilter constrains listing queries.
type LegalEntityFilter struct {
	Type    LegalEntityType
	Country string
	Active  *bool
	Search  string
	Limit   int
	Offset  int
}
