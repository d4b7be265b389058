// Package domain defines the persistence models for users, image
// operations, and payment transactions. These types are mapped with GORM
// and form the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User holds the account data the accounting core depends on. The account
// itself (registration, sessions) is owned by the auth layer; this model
// exists so the ledger can read and mutate the credit balance.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name / Email: display data, written once at registration.
//   - Credits: prepaid usage balance; never negative. Mutated only through
//     the ledger repository's conditional update.
type User struct {
	ID        string         `json:"id"      gorm:"type:char(36);primaryKey"`
	Name      string         `json:"name"    gorm:"type:varchar(255);not null"`
	Email     string         `json:"email"   gorm:"type:varchar(255);not null;uniqueIndex"`
	Credits   int            `json:"credits" gorm:"not null;default:0;check:credits >= 0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"       gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Operation records one completed image transformation. A row is inserted
// only after the external provider succeeded, and is immutable afterwards
// except for deletion.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; every read and delete is scoped by this column.
//   - Kind: one of the fixed operation kinds (see operation.go).
//   - OriginalAssetID / OriginalURL: storage id and public URL of the
//     uploaded source image.
//   - GeneratedAssetID / GeneratedURL: storage id and public URL of the
//     transformed result.
//   - Metadata: free-form operation parameters (aspect ratio, target
//     color, object description), stored as JSON.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Operation struct {
	ID               string            `json:"id"                        gorm:"type:char(36);primaryKey"`
	UserID           string            `json:"user_id"                   gorm:"type:char(36);not null;index:idx_user_operations,priority:1"`
	Kind             OperationKind     `json:"operation_type"            gorm:"type:varchar(32);not null"`
	OriginalAssetID  string            `json:"original_image_public_id"  gorm:"type:varchar(255);not null"`
	OriginalURL      string            `json:"original_image"            gorm:"type:varchar(2000);not null"`
	GeneratedAssetID string            `json:"generated_image_public_id" gorm:"type:varchar(255);not null"`
	GeneratedURL     string            `json:"generated_image"           gorm:"type:varchar(2000);not null"`
	Metadata         map[string]string `json:"operation_metadata"        gorm:"serializer:json"`
	CreatedAt        time.Time         `json:"created_at"                gorm:"index:idx_user_operations,priority:2"`
	UpdatedAt        time.Time         `json:"updated_at"`
	DeletedAt        gorm.DeletedAt    `json:"-"                         gorm:"index"`

	// CreditsUsed is derived from the static cost table at read time and
	// never persisted.
	CreditsUsed int `json:"credits_used" gorm:"-"`
}

// TableName returns the database table name for Operation.
func (Operation) TableName() string { return "operations" }

// Transaction status values. "pending" -> "completed" is the only valid
// transition; completion is the sole event that credits a balance.
const (
	TxPending   = "pending"
	TxCompleted = "completed"
)

// Transaction records one attempted purchase of credits against the
// payment gateway. A row is created in the pending state alongside the
// gateway's payment intent and flipped to completed exactly once by the
// success callback.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: purchasing user.
//   - PaymentIntentID: the gateway-issued intent identifier; unique so a
//     given intent can only ever map to one transaction row.
//   - CreditsAmount: credits to grant on completion (> 0).
//   - AmountPaid: money amount in the given currency (>= 0).
//   - Currency: ISO currency code, lowercase (e.g. "usd").
//   - Status: TxPending or TxCompleted.
//   - PaidAt: stamped on the pending -> completed transition.
type Transaction struct {
	ID              string         `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID          string         `json:"user_id"           gorm:"type:char(36);not null;index"`
	PaymentIntentID string         `json:"payment_intent_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	CreditsAmount   int            `json:"credits_amount"    gorm:"not null"`
	AmountPaid      float64        `json:"amount_paid"       gorm:"not null"`
	Currency        string         `json:"currency"          gorm:"type:varchar(8);not null"`
	Status          string         `json:"status"            gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','completed')"`
	PaidAt          *time.Time     `json:"paid_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"                 gorm:"index"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string { return "transactions" }
