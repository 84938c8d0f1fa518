package core

// Logger is the app-wide leveled logger.
//
// Implementations may inspect args for well-known types (eg. an owner ID
// string or an error) to enrich the emitted event.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
