package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation errors: malformed or inconsistent input. Surfaced to
	// the caller, never retried.
	ErrValidationFailed        = errors.New("validation failed")
	ErrSinglesPlayersRequired  = errors.New("singles games require both players")
	ErrDoublesPlayersRequired  = errors.New("doubles games require all four players")
	ErrSamePlayerBothSides     = errors.New("a player cannot appear on both sides")
	ErrWinnerTokenInvalid      = errors.New("declared winner does not match the game type")
	ErrReporterNotParticipant  = errors.New("reporter must be one of the game's players")
	ErrNegativeScore           = errors.New("scores cannot be negative")
	ErrPlayedAtRequired        = errors.New("played_at is required")
	ErrDisputeReasonRequired   = errors.New("a reason is required when disputing a game")
	ErrResolutionNotesRequired = errors.New("resolution notes are required")

	// State machine errors.
	ErrGameNotPending  = errors.New("game is not awaiting verification")
	ErrGameNotDisputed = errors.New("game is not disputed")

	// Permission errors.
	ErrNotCounterpart = errors.New("only the opposing side can verify or dispute this game")
	ErrAdminRequired  = errors.New("administrator privileges required")

	// Precondition violations: these indicate inconsistent data and
	// abort the whole processing transaction.
	ErrProfileMissing = errors.New("player profile missing for game participant")

	// Auth errors.
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrAuthNicknameTaken      = errors.New("nickname is already taken")
	ErrPasswordTooShort       = errors.New("password is too short")
)
