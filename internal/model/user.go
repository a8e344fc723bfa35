package model

import "time"

type User struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	AnthropicAPIKey string    `db:"anthropic_api_key" json:"-"`
	OpenAIAPIKey    string    `db:"openai_api_key" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// HasCustomKeys reports whether the user stores any provider
// credentials of their own.
func (u *User) HasCustomKeys() bool {
	return u.AnthropicAPIKey != "" || u.OpenAIAPIKey != ""
}
