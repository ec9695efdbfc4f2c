package constants

import "time"

// Application Information
const (
	AppName    = "Locatory API"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix       = "locatory:"
	CacheKeyPlace        = CacheKeyPrefix + "place:"
	CacheKeyUnreadAlerts = CacheKeyPrefix + "alerts:"
)

// Collections
const (
	CollectionPlaces   = "places"
	CollectionReviews  = "reviews"
	CollectionLikes    = "likes"
	CollectionDislikes = "dislikes"
)

const (
	ResetTokenExpiry = 10 * time.Minute
	// GeocodeTimeout bounds the best-effort geocode done while registering.
	GeocodeTimeout = 5 * time.Second
)

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)
