package dto

import (
	"github.com/impulso-give/impulso-api/internal/models"
)

// SubmitVerificationRequest is the organizer's verification submission payload.
// Evidence URLs are produced beforehand through the evidence upload endpoint.
type SubmitVerificationRequest struct {
	CampaignID          string                    `json:"campaignId" validate:"required"`
	IDDocumentFrontURL  string                    `json:"idDocumentFrontUrl"`
	IDDocumentFrontMime string                    `json:"idDocumentFrontMime"`
	IDDocumentBackURL   string                    `json:"idDocumentBackUrl"`
	IDDocumentBackMime  string                    `json:"idDocumentBackMime"`
	SupportingDocs      []models.EvidenceDocument `json:"supportingDocs"`
	CampaignStory       string                    `json:"campaignStory"`
	ReferenceName       string                    `json:"referenceContactName"`
	ReferenceEmail      string                    `json:"referenceContactEmail" validate:"omitempty,email"`
	ReferencePhone      string                    `json:"referenceContactPhone"`
}

// ReviewDecisionRequest carries an admin status transition.
type ReviewDecisionRequest struct {
	CampaignID string                    `json:"campaignId" validate:"required"`
	Status     models.VerificationStatus `json:"status" validate:"required"`
	Notes      string                    `json:"notes"`
}

// ReviewQuery mirrors the admin dashboard listing filters.
type ReviewQuery struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// EvidenceResult is returned per uploaded file.
type EvidenceResult struct {
	Slot     string `json:"slot"`
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// EvidenceBundleDocument is one reviewable document with its render hint.
type EvidenceBundleDocument struct {
	Slot     string `json:"slot"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Kind     string `json:"kind"` // "image" or "file"
}

// EvidenceBundle is everything the review dashboard needs for one request.
type EvidenceBundle struct {
	Request   models.VerificationRequest `json:"request"`
	Campaign  models.Campaign            `json:"campaign"`
	Organizer models.UserInfo            `json:"organizer"`
	Documents []EvidenceBundleDocument   `json:"documents"`
}
