package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCustomer   = "customer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type Preferences struct {
	Newsletter bool   `json:"newsletter" bson:"newsletter"`
	SMS        bool   `json:"sms" bson:"sms"`
	Language   string `json:"language" bson:"language"`
	Currency   string `json:"currency" bson:"currency"`
}

type User struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email              string             `json:"email" bson:"email"`
	Name               string             `json:"name" bson:"name"`
	Phone              string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Password           string             `json:"-" bson:"password"`
	Role               string             `json:"role" bson:"role"`
	Provider           string             `json:"provider,omitempty" bson:"provider"`
	ProviderID         string             `json:"-" bson:"providerId,omitempty"`
	EmailVerified      bool               `json:"emailVerified" bson:"emailVerified"`
	VerificationCode   string             `json:"-" bson:"verificationCode,omitempty"`
	VerificationExpiry time.Time          `json:"-" bson:"verificationExpiry,omitempty"`
	Addresses          []Address          `json:"addresses" bson:"addresses"`
	Preferences        Preferences        `json:"preferences" bson:"preferences"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

func (u *User) IsAdmin() bool { return IsAdminRole(u.Role) }

func (u *User) FindAddress(id string) (Address, bool) {
	for _, a := range u.Addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}

func (u *User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

func DefaultPreferences() Preferences {
	return Preferences{Newsletter: true, Language: "en", Currency: "INR"}
}
