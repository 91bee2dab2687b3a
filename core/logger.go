package core

// Logger is implemented by the logging services.
// args may contain errors, extra data (map[string]interface{}) and the request user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the user on whose behalf something is logged.
type Person struct {
	ID       string
	Username string
	Email    string
}
