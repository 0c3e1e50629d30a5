package domain

import (
	"errors"
	"time"
)

// Actor is an administrative identity capable of holding session authority.
// Created at provisioning time; immutable except credential rotation.
type Actor struct {
	ID             string
	Name           string
	CredentialHash string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate validates the actor for persistence. Returns an error describing the first validation failure.
func (a *Actor) Validate() error {
	if a.Name == "" {
		return errors.New("name is required")
	}
	if a.CredentialHash == "" {
		return errors.New("credential hash is required")
	}
	return nil
}
