package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenhangar/ghe-billing/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

type contractRow struct {
	ID              uuid.UUID
	ContractorID    *uuid.UUID
	SubcontractorID *uuid.UUID
	Status          string
	PickupLocation  string
	DropOffLocation string
	DeliveryCharge  decimal.Decimal
	Surcharge       decimal.Decimal
	Discount        decimal.Decimal
	CreatedAt       time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
}

type luggageRow struct {
	ID            uuid.UUID
	ContractID    uuid.UUID
	LuggageOwner  string
	CaseNumber    string
	FlightNumber  string
	Weight        decimal.Decimal
	ContactNumber string
	Position      int
}

const contractColumns = `
	c.id,
	c.contractor_id,
	c.subcontractor_id,
	cs.status_name AS status,
	c.pickup_location,
	c.drop_off_location,
	c.delivery_charge,
	c.surcharge,
	c.discount,
	c.created_at,
	c.delivered_at,
	c.cancelled_at
`

func (r *ContractRepository) ListContracts(ctx context.Context) ([]model.Contract, error) {
	var rows []contractRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT` + contractColumns + `
		FROM contracts c
		JOIN contract_status cs ON cs.id = c.contract_status_id
		ORDER BY c.created_at DESC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.Contract{}, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	luggage, err := r.listLuggage(ctx, ids)
	if err != nil {
		return nil, err
	}

	contracts := make([]model.Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, row.toModel(luggage[row.ID]))
	}
	return contracts, nil
}

func (r *ContractRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var row contractRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+contractColumns+`
		FROM contracts c
		JOIN contract_status cs ON cs.id = c.contract_status_id
		WHERE c.id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	luggage, err := r.listLuggage(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	contract := row.toModel(luggage[id])
	return &contract, nil
}

// UpdateSurcharge touches only the surcharge column; total is derived on read.
func (r *ContractRepository) UpdateSurcharge(ctx context.Context, id uuid.UUID, surcharge decimal.Decimal) error {
	return r.updateCharge(ctx, `UPDATE contracts SET surcharge = ? WHERE id = ?`, surcharge, id)
}

func (r *ContractRepository) UpdateDiscount(ctx context.Context, id uuid.UUID, discount decimal.Decimal) error {
	return r.updateCharge(ctx, `UPDATE contracts SET discount = ? WHERE id = ?`, discount, id)
}

func (r *ContractRepository) updateCharge(ctx context.Context, query string, value decimal.Decimal, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(query, value, id)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContractRepository) listLuggage(ctx context.Context, contractIDs []uuid.UUID) (map[uuid.UUID][]model.Luggage, error) {
	var rows []luggageRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			contract_id,
			luggage_owner,
			case_number,
			flight_number,
			weight,
			contact_number,
			position
		FROM luggage
		WHERE contract_id IN ?
		ORDER BY contract_id, position, id
	`, contractIDs).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID][]model.Luggage, len(contractIDs))
	for _, row := range rows {
		result[row.ContractID] = append(result[row.ContractID], model.Luggage{
			ID:           row.ID,
			ContractID:   row.ContractID,
			Owner:        row.LuggageOwner,
			CaseNumber:   row.CaseNumber,
			FlightNumber: row.FlightNumber,
			Weight:       row.Weight,
			Contact:      row.ContactNumber,
			Position:     row.Position,
		})
	}
	return result, nil
}

func (row contractRow) toModel(luggage []model.Luggage) model.Contract {
	if luggage == nil {
		luggage = []model.Luggage{}
	}
	return model.Contract{
		ID:              row.ID,
		DeliveryCharge:  row.DeliveryCharge,
		Surcharge:       row.Surcharge,
		Discount:        row.Discount,
		Status:          row.Status,
		PickupLocation:  row.PickupLocation,
		DropOffLocation: row.DropOffLocation,
		ContractorID:    row.ContractorID,
		SubcontractorID: row.SubcontractorID,
		CreatedAt:       row.CreatedAt,
		DeliveredAt:     row.DeliveredAt,
		CancelledAt:     row.CancelledAt,
		Luggage:         luggage,
	}
}
