// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type LicenseMode uint8

const (
	LicenseModePersonal LicenseMode = iota
	LicenseModeRent
	LicenseModeRentAndBuy
	LicenseModeParentRemix
	LicenseModeChildRemix
)

func (m LicenseMode) String() string {
	switch m {
	case LicenseModePersonal:
		return "personal"
	case LicenseModeRent:
		return "rent"
	case LicenseModeRentAndBuy:
		return "rent_and_buy"
	case LicenseModeParentRemix:
		return "parent_remix"
	case LicenseModeChildRemix:
		return "child_remix"
	default:
		return "unknown"
	}
}

func (m LicenseMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

type ClaimStatus string

const (
	ClaimStatusConfirmed ClaimStatus = "confirmed"
	ClaimStatusFailed    ClaimStatus = "failed"
)
