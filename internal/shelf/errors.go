package shelf

import "errors"

// Error variables for shelf operations.
var (
	ErrNotFound           = errors.New("item not found")
	ErrIDRequired         = errors.New("item ID is required")
	ErrDuplicateID        = errors.New("item already on shelf")
	ErrIDGenerationFailed = errors.New("no unique id after repeated attempts")
	ErrRenewOverdue       = errors.New("cannot renew an overdue loan")
	ErrNotRenewable       = errors.New("loan is not in a renewable state")
	ErrInvalidReading     = errors.New("invalid reading status")
	ErrInvalidLoan        = errors.New("invalid loan status")
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataDirEmpty       = errors.New("data-dir cannot be empty")
	ErrInvalidSchedule    = errors.New("invalid sweep_schedule")
	ErrInvalidLogLevel    = errors.New("invalid log_level")
)
