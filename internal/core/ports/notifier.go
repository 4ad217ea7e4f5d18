package ports

// Notifier raises an external alert for an error-severity message. Calls must
// never block on or fail because of the external endpoint.
type Notifier interface {
	Notify(message string)
	Enabled() bool
}
