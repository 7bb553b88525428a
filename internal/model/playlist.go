package model

import "time"

// Song is an entry of a playlist. Backends persist it as an opaque embedded
// value (a BSON sub-document or a JSON column) and never query into it.
type Song struct {
	Title     string `json:"title"     bson:"title"`
	Artist    string `json:"artist"    bson:"artist"`
	YouTubeID string `json:"youTubeId" bson:"youTubeId"`
}

// Playlist is an ordered collection of songs owned by exactly one user.
// Ownership is recorded by email, not by user ID, so the ownership check
// works the same way whatever ID scheme the active backend uses.
type Playlist struct {
	ID         ID        `json:"id"`
	Name       string    `json:"name"`
	OwnerEmail string    `json:"ownerEmail"`
	Songs      []Song    `json:"songs"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PlaylistPair is the lightweight listing projection.
type PlaylistPair struct {
	ID   ID     `json:"_id"`
	Name string `json:"name"`
}
