package models

import "time"

// User is a clinician account. Local accounts carry a bcrypt PasswordHash;
// accounts created from an external identity provider carry Sub instead.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Sub          string    `bson:"sub,omitempty" json:"sub,omitempty"` // OIDC subject
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	PasswordHash string    `bson:"passwordHash,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
