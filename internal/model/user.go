// Package model defines the records exchanged between the storage backends,
// the service layer and the HTTP handlers.
package model

import "time"

// ID is an opaque record identity.
//
// Each backend produces its own textual form: a 24-character hex ObjectID for
// the document store, a decimal integer for the relational store. Two IDs are
// only ever compared through identity.Equal, never with == on backend-native
// values.
type ID string

func (id ID) String() string { return string(id) }

// User represents a registered account.
//
// Playlists is the membership view. The document backend stores it on the
// user record and keeps it in sync on playlist create/delete; the relational
// backend derives it from playlists.owner_email when the user is read.
type User struct {
	ID           ID        `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialized to clients
	Playlists    []ID      `json:"playlists"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

