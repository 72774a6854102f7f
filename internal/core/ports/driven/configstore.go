package driven

// ConfigStore holds user settings as flat dot keys such as
// "providers.openai.model" or "build.command_timeout". Values keep the type the
// backing decoder produced; SettingsService converts them to the shapes it needs.
type ConfigStore interface {
	// Get returns the raw value stored under key.
	Get(key string) (any, bool)

	// GetString returns the value under key when it is a string, else "".
	GetString(key string) string

	// Set stores value under key. File-backed stores write through immediately.
	Set(key string, value any) error

	// Path names where settings are kept, for `settings show` and error messages.
	Path() string
}
