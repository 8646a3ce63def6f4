// Package core provides the business logic for the MIME type registry.
//
// # Error Codes Reference
//
// This file maps registry errors to user-friendly messages with codes for
// support reference. Typed registry errors are matched first by kind; any
// other error falls back to case-insensitive pattern matching on its text.
//
// # Registry Errors (REG001-REG099)
//
//	REG001 - Invalid input: a field is missing, too long or malformed
//	         Action: Check the highlighted field and try again
//	         Kind: ErrValidation
//
//	REG002 - Duplicate: the value is already registered
//	         Action: Edit the existing entry instead of adding a new one
//	         Kind: ErrValidation wrapping ErrDuplicateKey
//
//	REG003 - Not found: the entry does not exist
//	         Action: Refresh the list; it may have been deleted
//	         Kind: ErrNotFound
//
//	REG004 - In use: the mime type still owns file extensions
//	         Action: Remove its file extensions first
//	         Kind: ErrConflict
//
//	REG005 - Seed problem: a bulk feed document could not be ingested
//	         Action: Check the seed logs; startup continues regardless
//	         Kind: ErrIngestion
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: Operation timed out
//	        Patterns: "timeout", "context deadline exceeded"
//
//	DB007 - Deadlock: Database was busy with conflicting operations
//	        Patterns: "deadlock"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgInvalid = UserMessage{
		Message: "Some of the submitted values are invalid",
		Action:  "Check the highlighted field and try again",
		Code:    "REG001",
	}
	msgDuplicate = UserMessage{
		Message: "This value is already registered",
		Action:  "Edit the existing entry instead of adding a new one",
		Code:    "REG002",
	}
	msgNotFound = UserMessage{
		Message: "The requested entry does not exist",
		Action:  "Refresh the list; it may have been deleted",
		Code:    "REG003",
	}
	msgInUse = UserMessage{
		Message: "The mime type still has file extensions",
		Action:  "Remove its file extensions before deleting it",
		Code:    "REG004",
	}
	msgIngestion = UserMessage{
		Message: "A seed document could not be ingested",
		Action:  "Check the seed logs; startup continues regardless",
		Code:    "REG005",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors that did not originate as a typed registry error.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a user-friendly message.
// Returns an empty UserMessage for nil errors.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrValidation) && errors.Is(err, ErrDuplicateKey):
		return msgDuplicate
	case errors.Is(err, ErrValidation):
		return msgInvalid
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrConflict):
		return msgInUse
	case errors.Is(err, ErrIngestion):
		return msgIngestion
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError returns a complete user-facing error string.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific user message rather
// than the default.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
