package notify

import "time"

const (
	DefaultBaseURL  = "https://api.telegram.org"
	DefaultCooldown = 300 * time.Second
	DefaultTimeout  = 10 * time.Second

	// MaxMessageRunes caps the log text quoted in an alert, leaving room
	// for the header within the API's 4096 character message limit.
	MaxMessageRunes = 3500

	EnvToken   = "TELEGRAM_TOKEN"
	EnvChat    = "TELEGRAM_CHAT"
	EnvBaseURL = "TELEGRAM_API_URL"

	payloadBufferSize = 4 * 1024
)
