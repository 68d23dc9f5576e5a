package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentSide string

const (
	DocumentSideFront DocumentSide = "front"
	DocumentSideBack  DocumentSide = "back"
)

type Profile struct {
	ID                     uuid.UUID  `json:"id"`
	Email                  string     `json:"email"`
	FirstName              string     `json:"first_name"`
	MiddleInitial          string     `json:"middle_initial"`
	LastName               string     `json:"last_name"`
	Suffix                 string     `json:"suffix"`
	ContactNumber          string     `json:"contact_number"`
	BirthDate              *time.Time `json:"birth_date,omitempty"`
	EmergencyContactName   string     `json:"emergency_contact_name"`
	EmergencyContactNumber string     `json:"emergency_contact_number"`
	GovIDType              *int       `json:"gov_id_type,omitempty" gorm:"column:gov_id_type"`
	GovIDNumber            string     `json:"gov_id_number" gorm:"column:gov_id_number"`
	GovIDProof             string     `json:"gov_id_proof" gorm:"column:gov_id_proof"`
	GovIDProofBack         string     `json:"gov_id_proof_back" gorm:"column:gov_id_proof_back"`
}

// DocumentKey returns the stored blob key for the given side of the identity document.
func (p Profile) DocumentKey(side DocumentSide) string {
	if side == DocumentSideBack {
		return p.GovIDProofBack
	}
	return p.GovIDProof
}

type IdentityType struct {
	ID   int    `json:"id"`
	Name string `json:"id_type_name"`
}
