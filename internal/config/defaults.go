// Package config provides configuration loading and defaults for dermwatch.
package config

import "time"

// DefaultConfigDir is the default location for dermwatch configuration and
// the embedded database.
const DefaultConfigDir = "~/.config/dermwatch"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "dermwatch.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. DERMWATCH_QUOTA_DAILY_LIMIT.
const EnvPrefix = "DERMWATCH"

// DefaultStore uses the embedded SQLite database.
var DefaultStore = Store{
	Driver: "sqlite",
}

// DefaultQuota holds the default AI usage limits.
var DefaultQuota = Quota{
	DailyLimit: 5,
	Backend:    "store",
	RedisAddr:  "localhost:6379",
}

// DefaultAnalysis holds the default analysis window and prompt language.
var DefaultAnalysis = Analysis{
	WindowDays: 30,
	MinRecords: 3,
	Language:   "zh",
}

// DefaultAI holds the default AI provider settings. An empty model or
// endpoint selects the provider's own default.
var DefaultAI = AI{
	Provider:          "gemini",
	Temperature:       0.7,
	MaxOutputTokens:   2048,
	RequestsPerMinute: 30,
	Timeout:           60 * time.Second,
}

// DefaultServer holds the default HTTP transport settings.
var DefaultServer = Server{
	Addr:            ":8080",
	ShutdownTimeout: 10 * time.Second,
}

// DefaultLog holds the default logging settings.
var DefaultLog = Log{
	Level: "info",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
