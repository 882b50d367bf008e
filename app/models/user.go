package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"

	// Subscription lifecycle. Users start as pending_payment and are switched
	// to active exactly once, by the payment reconciler.
	SUBSCRIPTION_PENDING = "pending_payment"
	SUBSCRIPTION_ACTIVE  = "active"
)

type User struct {
	ID                      uint           `gorm:"primaryKey" json:"id"`
	Name                    string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email                   string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password                string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role                    string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	SubscriptionStatus      string         `gorm:"type:varchar(50);default:'pending_payment';index" json:"subscription_status" validate:"oneof=pending_payment active"`
	SubscriptionActivatedAt *time.Time     `gorm:"type:timestamp;default:null" json:"subscription_activated_at"`
	LastLoginAt             *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt               time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(name string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:               name,
		Email:              email,
		Password:           pw,
		Role:               ROLE_USER,
		SubscriptionStatus: SUBSCRIPTION_PENDING,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// HasActiveSubscription reports whether the user already paid.
func (u *User) HasActiveSubscription() bool {
	return u.SubscriptionStatus == SUBSCRIPTION_ACTIVE
}

func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}
