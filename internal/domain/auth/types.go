package auth

import "time"

// Config drives channel authentication behavior.
type Config struct {
	Enabled  bool
	Secret   string
	TokenTTL time.Duration
	Channels []Channel
}

// Channel registers one caller allowed to obtain tokens. The secret is stored
// as a bcrypt hash, never in clear.
type Channel struct {
	ID         string
	SecretHash string
}

// TokenRequest captures the credential exchange payload.
type TokenRequest struct {
	ChannelID     string `json:"channelId"`
	ChannelSecret string `json:"channelSecret"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims is the validated content of a bearer token.
type Claims struct {
	ChannelID string
	TokenType string
	ExpiresAt time.Time
}
