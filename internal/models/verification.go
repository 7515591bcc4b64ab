package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// VerificationStatus enumerates the campaign verification states.
type VerificationStatus string

const (
	VerificationStatusUnverified VerificationStatus = "unverified"
	VerificationStatusPending    VerificationStatus = "pending"
	VerificationStatusApproved   VerificationStatus = "approved"
	VerificationStatusRejected   VerificationStatus = "rejected"
)

// Valid reports whether the status is a known verification state.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationStatusUnverified, VerificationStatusPending, VerificationStatusApproved, VerificationStatusRejected:
		return true
	default:
		return false
	}
}

// EvidenceDocument references one uploaded evidence file together with its
// declared MIME type, so renderers never have to sniff the URL.
type EvidenceDocument struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// IsImage reports whether the document should be rendered as an image.
func (d EvidenceDocument) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(d.MimeType), "image/")
}

// EvidenceList stores supporting documents as a JSONB column.
type EvidenceList []EvidenceDocument

// Value implements driver.Valuer.
func (l EvidenceList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *EvidenceList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported evidence list type %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, l)
}

// VerificationRequest is the single verification record kept per campaign.
// It is created implicitly as unverified and never hard-deleted.
type VerificationRequest struct {
	CampaignID          string             `db:"campaign_id" json:"campaignId"`
	Status              VerificationStatus `db:"status" json:"status"`
	IDDocumentFrontURL  string             `db:"id_document_front_url" json:"idDocumentFrontUrl"`
	IDDocumentFrontMime string             `db:"id_document_front_mime" json:"idDocumentFrontMime"`
	IDDocumentBackURL   string             `db:"id_document_back_url" json:"idDocumentBackUrl"`
	IDDocumentBackMime  string             `db:"id_document_back_mime" json:"idDocumentBackMime"`
	SupportingDocs      EvidenceList       `db:"supporting_docs" json:"supportingDocs"`
	CampaignStory       *string            `db:"campaign_story" json:"campaignStory,omitempty"`
	ReferenceName       *string            `db:"reference_name" json:"referenceContactName,omitempty"`
	ReferenceEmail      *string            `db:"reference_email" json:"referenceContactEmail,omitempty"`
	ReferencePhone      *string            `db:"reference_phone" json:"referenceContactPhone,omitempty"`
	RequestDate         *time.Time         `db:"request_date" json:"requestDate,omitempty"`
	ApprovalDate        *time.Time         `db:"approval_date" json:"approvalDate,omitempty"`
	Notes               *string            `db:"notes" json:"notes,omitempty"`
	ReviewedBy          *string            `db:"reviewed_by" json:"reviewedBy,omitempty"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updatedAt"`
}

// VerificationRequestSummary is the admin dashboard row joining campaign metadata.
type VerificationRequestSummary struct {
	CampaignID     string             `db:"campaign_id" json:"campaignId"`
	CampaignTitle  string             `db:"campaign_title" json:"campaignTitle"`
	OrganizerID    string             `db:"organizer_id" json:"organizerId"`
	OrganizerName  string             `db:"organizer_name" json:"organizerName"`
	OrganizerEmail string             `db:"organizer_email" json:"organizerEmail"`
	Status         VerificationStatus `db:"status" json:"status"`
	RequestDate    *time.Time         `db:"request_date" json:"requestDate,omitempty"`
	ApprovalDate   *time.Time         `db:"approval_date" json:"approvalDate,omitempty"`
	Notes          *string            `db:"notes" json:"notes,omitempty"`
}

// VerificationFilter constrains admin listing queries.
type VerificationFilter struct {
	Statuses []VerificationStatus
	Search   string
	Limit    int
	Offset   int
}
