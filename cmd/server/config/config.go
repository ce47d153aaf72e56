package config

import (
	"fmt"
	"time"

	"github.com/goliatone/go-persistence-bun"
)

// BaseConfig is the application configuration tree. Values come from
// config/app.json with environment overrides applied by go-config.
type BaseConfig struct {
	Name        string      `json:"name" yaml:"name"`
	Env         string      `json:"env" yaml:"env"`
	Server      Server      `json:"server" yaml:"server"`
	Auth        Auth        `json:"auth" yaml:"auth"`
	Persistence Persistence `json:"persistence" yaml:"persistence"`
}

func (a BaseConfig) Validate() error {
	if a.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	return nil
}

func (a BaseConfig) GetServer() Server {
	return a.Server
}

func (a BaseConfig) GetAuth() Auth {
	return a.Auth
}

func (a BaseConfig) GetPersistence() Persistence {
	return a.Persistence
}

type Server struct {
	Addr string `json:"addr" yaml:"addr"`
}

func (s Server) GetAddr() string {
	if s.Addr == "" {
		return ":9090"
	}
	return s.Addr
}

// Auth satisfies the users.Config interface.
type Auth struct {
	SigningKey                string `json:"signing_key" yaml:"signing_key"`
	SigningMethod             string `json:"signing_method" yaml:"signing_method"`
	Issuer                    string `json:"issuer" yaml:"issuer"`
	ContextKey                string `json:"context_key" yaml:"context_key"`
	AuthScheme                string `json:"auth_scheme" yaml:"auth_scheme"`
	TokenLookup               string `json:"token_lookup" yaml:"token_lookup"`
	AccessTokenTTLExpression  string `json:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTLExpression string `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetIssuer() string {
	return a.Issuer
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetAccessTokenTTL() time.Duration {
	return parseDuration(a.AccessTokenTTLExpression, 15*time.Minute)
}

func (a Auth) GetRefreshTokenTTL() time.Duration {
	return parseDuration(a.RefreshTokenTTLExpression, 7*24*time.Hour)
}

// Persistence satisfies the persistence engine's Config interface.
type Persistence struct {
	Debug                 bool   `json:"debug" yaml:"debug"`
	Driver                string `json:"driver" yaml:"driver"`
	Server                string `json:"server" yaml:"server"`
	OtelIdentifier        string `json:"otel_identifier" yaml:"otel_identifier"`
	PingTimeoutExpression string `json:"ping_timeout" yaml:"ping_timeout"`
}

var _ persistence.Config = Persistence{}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

// GetOtelIdentifier names the service in otel instrumented query traces.
func (p Persistence) GetOtelIdentifier() string {
	return p.OtelIdentifier
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

// GetDSN returns the database connection string.
func (p Persistence) GetDSN() string {
	if p.Server == "" {
		return "file::memory:?cache=shared"
	}
	return p.Server
}

func (p Persistence) GetServer() string {
	return p.GetDSN()
}

func (p Persistence) GetPingTimeout() time.Duration {
	return parseDuration(p.PingTimeoutExpression, 5*time.Second)
}

func parseDuration(expr string, def time.Duration) time.Duration {
	if expr == "" {
		return def
	}
	dur, err := time.ParseDuration(expr)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", expr),
		)
	}
	return dur
}
