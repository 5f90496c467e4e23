package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Patterns: "file too large"
//	FILE002 - Unsupported format: File type is not supported
//	          Patterns: "unsupported file type"
//	FILE003 - Encoding error: Unknown or invalid source encoding
//	          Patterns: "encoding error"
//	FILE004 - No file: No file was provided
//	          Patterns: "no file provided"
//	FILE005 - Unreadable file: The file could not be parsed
//	          Patterns: "read source", "parse error"
//
// # Structured Source Errors (SRC001-SRC099)
//
//	SRC001 - No table: Database file contains no tables
//	         Patterns: "no tables found"
//	SRC002 - No sheet: Workbook contains no sheets
//	         Patterns: "no sheets found"
//	SRC003 - Database unreachable: Could not connect to the database
//	         Patterns: "connection refused"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy: Too many normalizations in progress
//	         Patterns: "too many runs"
//	RUN002 - Cancelled: The run was cancelled
//	         Patterns: "context canceled"
//	RUN003 - Timeout: The run took too long
//	         Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the dump into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Use a .csv, .txt, .db/.sqlite or .xlsx file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File encoding is not recognized",
			Action:  "Pass a valid encoding name such as windows-1252, or convert the file to UTF-8",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Attach the dump in the \"file\" form field",
			Code:    "FILE004",
		},
	},

	// Structured sources
	{
		pattern: "no tables found",
		msg: UserMessage{
			Message: "The database contains no tables",
			Action:  "Check that the file is the right database",
			Code:    "SRC001",
		},
	},
	{
		pattern: "no sheets found",
		msg: UserMessage{
			Message: "The workbook contains no sheets",
			Action:  "Check that the file is the right workbook",
			Code:    "SRC002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "SRC003",
		},
	},

	// Run errors
	{
		pattern: "too many runs",
		msg: UserMessage{
			Message: "Too many normalizations in progress",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Please try again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The run timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "RUN003",
		},
	},

	// Generic read failures come last so the specific causes above win.
	{
		pattern: "read source",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Check that the file is not truncated or corrupted",
			Code:    "FILE005",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Check that the file is not truncated or corrupted",
			Code:    "FILE005",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback message with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
