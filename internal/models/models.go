package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// OTP purposes. These are the only values accepted on the wire.
const (
	PurposeRegister      = "register"
	PurposeResetPassword = "reset-password"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents a registered account. Accounts are only created through the
// OTP-gated registration flow, so IsEmailVerified is true for every row today;
// the column exists because the web client surfaces it.
type User struct {
	BaseModel
	Email           string    `json:"email" gorm:"unique;not null"`
	PasswordHash    string    `json:"-" gorm:"not null"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	IsEmailVerified bool      `json:"isEmailVerified" gorm:"not null;default:false"`
	UpdatedAt       time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// OTPCode is an emailed one-time passcode pending redemption.
// At most one live code exists per (email, purpose); issuing a new one
// deletes its predecessor. Only a bcrypt hash of the code is stored.
type OTPCode struct {
	BaseModel
	Email      string     `json:"email" gorm:"not null;index:idx_otp_email_purpose"`
	Purpose    string     `json:"purpose" gorm:"not null;index:idx_otp_email_purpose"`
	CodeHash   string     `json:"-" gorm:"not null"`
	ExpiresAt  time.Time  `json:"expiresAt" gorm:"not null"`
	ConsumedAt *time.Time `json:"consumedAt"`
	Attempts   int        `json:"attempts" gorm:"not null;default:0"`
	LastSentAt time.Time  `json:"lastSentAt" gorm:"not null"`
}

// ResetTicket tracks a single-use password-reset credential. The signed
// ticket handed to the client carries this row's ID; completing a reset
// marks the row used so a replayed ticket is rejected.
type ResetTicket struct {
	BaseModel
	UserID    string     `json:"userId" gorm:"not null;index"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null"`
	UsedAt    *time.Time `json:"usedAt"`

	User *User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// Store represents a retail location belonging to the company
type Store struct {
	BaseModel
	Name      string    `json:"name" gorm:"not null"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:StoreID"`
}

// Product represents a catalog item stocked at a single store.
// Quantity is the on-hand count and is never allowed below zero.
type Product struct {
	BaseModel
	StoreID    string    `json:"storeId" gorm:"not null;uniqueIndex:idx_store_sku"`
	Name       string    `json:"name" gorm:"not null"`
	SKU        string    `json:"sku" gorm:"not null;uniqueIndex:idx_store_sku"`
	PriceCents int64     `json:"priceCents" gorm:"not null;default:0"`
	Quantity   int64     `json:"quantity" gorm:"not null;default:0"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Store *Store `json:"-" gorm:"foreignKey:StoreID;references:ID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &OTPCode{}, &ResetTicket{}, &Store{}, &Product{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
