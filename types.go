package users

import (
	"fmt"
	"strings"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options. The signing secret and token lifetimes are
// process configuration injected at construction, never globals.
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetIssuer() string
	GetContextKey() string
	GetAuthScheme() string
	GetTokenLookup() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println("[ERR] USERS " + formatLogLine(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println("[WRN] USERS " + formatLogLine(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println("[INF] USERS " + formatLogLine(msg, args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println("[DBG] USERS " + formatLogLine(msg, args))
}

// formatLogLine renders trailing args as key=value pairs, matching the
// slog style call sites use throughout the package.
func formatLogLine(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(msg)

	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if len(args)%2 == 1 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}

	return b.String()
}
