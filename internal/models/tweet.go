package models

import "time"

// Tweet is a short text post. UserID is fixed when the tweet is created.
// Username and Name are joined from the author for listings.
type Tweet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Name      string    `json:"name,omitempty"`
}
