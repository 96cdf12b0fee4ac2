package config

import (
	"github.com/hindterminals/workpermit/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Mail      Mail
	Sweep     Sweep
	Title     string
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string // domain name for the webserver
	Port         int    // listening port for the webserver
	ShutDownTime int    // wait time for shutdown
	URL          string // base url for the webserver
}

// Mail holds the SMTP settings for the notification dispatcher.
type Mail struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// FallbackRecipients receive close and reject notifications when no
	// recipient can be resolved through the identity directory.
	FallbackRecipients []string
}

// Sweep holds the expiry sweep settings.
type Sweep struct {
	Enabled         bool
	IntervalMinutes int
}
