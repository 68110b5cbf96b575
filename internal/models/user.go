package models

import (
	"github.com/google/uuid"
)

// Account represents an operator allowed to use the administrative API
type Account struct {
	ID           uuid.UUID `json:"id" yaml:"-"`
	Username     string    `json:"username" yaml:"username"`
	PasswordHash string    `json:"-" yaml:"password_hash"`
	IsAdmin      bool      `json:"isAdmin" yaml:"admin"`
}
