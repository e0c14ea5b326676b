package cli

import "errors"

var (
	errFlagRequiresArg   = errors.New("flag requires an argument")
	errUnknownFlag       = errors.New("unknown flag")
	errPayloadAndFields  = errors.New("pass either a JSON payload or field flags, not both")
	errEmptyValue        = errors.New("empty value not allowed")
	errInvalidDate       = errors.New("invalid date (use YYYY-MM-DD or RFC 3339)")
	errNothingToEdit     = errors.New("nothing to edit (pass at least one field flag)")
	errStatusRequired    = errors.New("reading status is required")
	errConfirmRequired   = errors.New("refusing to clear the shelf without --yes")
	errUserNameRequired  = errors.New("user name is required")
	errUnknownSubcommand = errors.New("unknown subcommand")
	errNegativeDays      = errors.New("--max-days must be non-negative")
	errUnterminatedQuote = errors.New("unterminated quote")
)
