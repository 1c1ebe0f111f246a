package core

// error_messages.go maps technical errors to support codes.
//
// The HTTP layer answers every upload failure with a bare 500, so these
// messages are never shown to clients. They are attached to server-side log
// entries so an operator can tell a malformed file from a database outage.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Read failure: the upload stream could not be read
//	FILE002 - Malformed row: a line has fewer than three fields
//	FILE003 - File too large: the upload exceeded UPLOAD_MAX_FILE_SIZE
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Persistence failure: the store rejected the operation
//	DB004 - Connection refused: unable to connect to database
//	DB005 - Connection reset: database connection was interrupted
//	DB006 - Timeout: operation timed out
//
// # Executor Errors (EXE001-EXE099)
//
//	EXE001 - Queue saturated: all workers busy and queue full
//	EXE002 - Executor closed: the server is shutting down
//	EXE003 - Task panic: a background job panicked
//
// # Default Error (ERR000)
//
// Typed errors are matched first with errors.Is/errors.As. Anything else is
// matched case-insensitively against the pattern list, first match wins.

import (
	"errors"
	"strings"
)

// UserMessage provides a readable description of an error with a support code.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgReadFailure = UserMessage{
		Message: "The uploaded file could not be read",
		Action:  "Upload the file again",
		Code:    "FILE001",
	}
	msgMalformedRow = UserMessage{
		Message: "A row has fewer than three fields",
		Action:  "Each line must be manufacturer;model;type",
		Code:    "FILE002",
	}
	msgPersistence = UserMessage{
		Message: "Vehicles could not be saved",
		Action:  "Please try again",
		Code:    "DB001",
	}
	msgQueueSaturated = UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "EXE001",
	}
	msgExecutorClosed = UserMessage{
		Message: "Server is shutting down",
		Action:  "Please try again shortly",
		Code:    "EXE002",
	}
	msgTaskPanic = UserMessage{
		Message: "A background job failed unexpectedly",
		Action:  "Check server logs for the stack trace",
		Code:    "EXE003",
	}
)

// errorPatterns catch untyped errors, mostly from database drivers.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE003",
		},
	},
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
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try uploading a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try uploading a smaller file or try again later",
			Code:    "DB006",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a UserMessage.
// Returns the zero value for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		readErr  *CSVReadError
		rowErr   *MalformedRowError
		panicErr *TaskPanicError
		persErr  *PersistenceError
	)

	switch {
	case errors.As(err, &rowErr):
		return msgMalformedRow
	case errors.As(err, &readErr):
		return msgReadFailure
	case errors.Is(err, ErrQueueSaturated):
		return msgQueueSaturated
	case errors.Is(err, ErrExecutorClosed):
		return msgExecutorClosed
	case errors.As(err, &panicErr):
		return msgTaskPanic
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if errors.As(err, &persErr) {
		return msgPersistence
	}

	return defaultMessage
}
