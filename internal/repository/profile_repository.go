package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenhangar/ghe-billing/internal/model"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `
	id,
	email,
	first_name,
	middle_initial,
	last_name,
	suffix,
	contact_number,
	birth_date,
	emergency_contact_name,
	emergency_contact_number,
	gov_id_type,
	gov_id_number,
	gov_id_proof,
	gov_id_proof_back
`

func (r *ProfileRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+profileColumns+`
		FROM profiles
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &profile, nil
}

// UpdateProfile writes the editable fields. Email and document keys are left alone.
func (r *ProfileRepository) UpdateProfile(ctx context.Context, profile model.Profile) (*model.Profile, error) {
	var saved model.Profile
	err := r.db.WithContext(ctx).Raw(`
		UPDATE profiles
		SET
			first_name = ?,
			middle_initial = ?,
			last_name = ?,
			suffix = ?,
			contact_number = ?,
			birth_date = ?,
			emergency_contact_name = ?,
			emergency_contact_number = ?,
			gov_id_type = ?,
			gov_id_number = ?
		WHERE id = ?
		RETURNING`+profileColumns,
		profile.FirstName,
		profile.MiddleInitial,
		profile.LastName,
		profile.Suffix,
		profile.ContactNumber,
		profile.BirthDate,
		profile.EmergencyContactName,
		profile.EmergencyContactNumber,
		profile.GovIDType,
		profile.GovIDNumber,
		profile.ID,
	).Scan(&saved).Error
	if err != nil {
		return nil, classify(err)
	}
	if saved.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &saved, nil
}

func (r *ProfileRepository) SetIdentityDocument(ctx context.Context, id uuid.UUID, side model.DocumentSide, key string) error {
	query := `UPDATE profiles SET gov_id_proof = ? WHERE id = ?`
	if side == model.DocumentSideBack {
		query = `UPDATE profiles SET gov_id_proof_back = ? WHERE id = ?`
	}
	result := r.db.WithContext(ctx).Exec(query, key, id)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ProfileRepository) ListIdentityTypes(ctx context.Context) ([]model.IdentityType, error) {
	types := make([]model.IdentityType, 0)
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, id_type_name AS name
		FROM verify_info_type
		ORDER BY id
	`).Scan(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}
