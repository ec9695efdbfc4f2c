package constants

// Field Length Limits
const (
	MinPasswordLength = 6
	MaxPasswordLength = 100
	MaxNameLength     = 50
	MaxTitleLength    = 100
	MaxDescLength     = 500
	MaxAddressLength  = 255
	MaxEmailLength    = 255
)

// Review scores
const (
	MinScore = 1
	MaxScore = 10
)
