package models

import "github.com/google/uuid"

// Identity is the principal issued by the auth provider. The application
// reads it but never mutates it outside sign-up and sign-in.
type Identity struct {
	ID       uuid.UUID        `json:"id"`
	Email    string           `json:"email"`
	Metadata IdentityMetadata `json:"metadata"`
}

// IdentityMetadata is supplied at sign-up.
type IdentityMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Username string `json:"username,omitempty"`
}
