package domain

import "time"

// NotifierOptions configures the external error notification target.
type NotifierOptions struct {
	// Token is the bearer credential of the bot. Empty disables notification.
	Token string

	// Destination is the chat identifier alerts are sent to. Empty disables
	// notification.
	Destination string

	// BaseURL of the bot API.
	//
	// Default: https://api.telegram.org
	BaseURL string

	// Cooldown is the minimum time between two dispatch attempts.
	//
	// Default: 300s
	Cooldown time.Duration

	// Timeout bounds a single HTTP dispatch.
	//
	// Default: 10s
	Timeout time.Duration

	// Async dispatches off the writer's goroutine.
	Async bool

	// LogPath is the file named in the alert text, normally the file
	// destination of the sink the alerting router writes to.
	LogPath string
}
