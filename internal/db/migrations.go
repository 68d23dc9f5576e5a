package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS contract_status (
		id SMALLINT PRIMARY KEY,
		status_name VARCHAR(64) NOT NULL UNIQUE
	);`,
	`INSERT INTO contract_status (id, status_name) VALUES
		(1, 'Available for Pickup'),
		(2, 'Accepted - Awaiting Pickup'),
		(3, 'In Transit'),
		(4, 'Delivered'),
		(5, 'Delivery Failed'),
		(6, 'Cancelled')
	ON CONFLICT (id) DO NOTHING;`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		contractor_id UUID,
		subcontractor_id UUID,
		contract_status_id SMALLINT NOT NULL REFERENCES contract_status(id),
		pickup_location TEXT NOT NULL DEFAULT '',
		drop_off_location TEXT NOT NULL DEFAULT '',
		delivery_charge NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (delivery_charge >= 0),
		surcharge NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (surcharge >= 0),
		discount NUMERIC(5,2) NOT NULL DEFAULT 0 CHECK (discount >= 0 AND discount <= 100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		delivered_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_created_at ON contracts (created_at);`,
	`CREATE TABLE IF NOT EXISTS luggage (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		luggage_owner TEXT NOT NULL DEFAULT '',
		case_number VARCHAR(64) NOT NULL DEFAULT '',
		flight_number VARCHAR(32) NOT NULL DEFAULT '',
		weight NUMERIC(8,2) NOT NULL DEFAULT 0,
		contact_number VARCHAR(32) NOT NULL DEFAULT '',
		position INT NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_luggage_contract_id ON luggage (contract_id);`,
	`CREATE TABLE IF NOT EXISTS pricing_region (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		region VARCHAR(128) NOT NULL UNIQUE
	);`,
	`CREATE TABLE IF NOT EXISTS pricing (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		region_id UUID NOT NULL REFERENCES pricing_region(id),
		city VARCHAR(128) NOT NULL,
		price NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_pricing_city ON pricing (region_id, city);`,
	`CREATE TABLE IF NOT EXISTS payment_status (
		id SMALLINT PRIMARY KEY,
		status_name VARCHAR(32) NOT NULL UNIQUE
	);`,
	`INSERT INTO payment_status (id, status_name) VALUES (1, 'Unpaid'), (2, 'Paid')
	ON CONFLICT (id) DO NOTHING;`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		invoice_number VARCHAR(16) NOT NULL,
		payment_status_id SMALLINT NOT NULL DEFAULT 1 REFERENCES payment_status(id),
		created_at TIMESTAMPTZ NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		total_charge NUMERIC(14,2) NOT NULL CHECK (total_charge >= 0),
		invoice_image TEXT NOT NULL DEFAULT '',
		paid_at TIMESTAMPTZ,
		contract_ids JSONB NOT NULL DEFAULT '[]'::jsonb
	);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_invoice_number ON payments (invoice_number);`,
	`CREATE TABLE IF NOT EXISTS verify_info_type (
		id SERIAL PRIMARY KEY,
		id_type_name VARCHAR(64) NOT NULL UNIQUE
	);`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		first_name VARCHAR(50) NOT NULL DEFAULT '',
		middle_initial VARCHAR(2) NOT NULL DEFAULT '',
		last_name VARCHAR(50) NOT NULL DEFAULT '',
		suffix VARCHAR(10) NOT NULL DEFAULT '',
		contact_number VARCHAR(32) NOT NULL DEFAULT '',
		birth_date DATE,
		emergency_contact_name VARCHAR(100) NOT NULL DEFAULT '',
		emergency_contact_number VARCHAR(32) NOT NULL DEFAULT '',
		gov_id_type INT REFERENCES verify_info_type(id),
		gov_id_number VARCHAR(20) NOT NULL DEFAULT '',
		gov_id_proof TEXT NOT NULL DEFAULT '',
		gov_id_proof_back TEXT NOT NULL DEFAULT ''
	);`,
}

func Migrate(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
