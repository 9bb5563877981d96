package core

// error_messages.go maps technical errors to user-facing messages with codes
// that can be quoted back when reporting a problem.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source unavailable: a dataset could not be loaded
//	         Action: Check the configured path or URL for the dataset
//	SRC002 - Source timeout: a dataset took too long to load
//	         Action: Raise SOURCE_FETCH_TIMEOUT or check the remote host
//
// # Snapshot Errors (SNAP001-SNAP099)
//
//	SNAP001 - Not ready: no snapshot has been published yet
//	          Action: Wait for startup to finish; check logs if it persists
//	SNAP002 - Already published: the snapshot is write-once
//
// # Lookup Errors
//
//	CHART001 - Unknown chart name
//	TRD001   - No trend series for the requested country
//	CFG001   - Scoring table could not be read
//
// # Request Errors
//
//	RATE001 - Rate limited
//	REQ001  - Request cancelled
//
// # Default Error (ERR000)
//
// Returned when nothing matches; check the logs for the technical error.
//
// Sentinel errors are matched with errors.Is first. Anything else falls back
// to case-insensitive substring patterns, first match wins.

import (
	"context"
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
	msgSourceUnavailable = UserMessage{
		Message: "A dataset could not be loaded",
		Action:  "Check the configured path or URL for the dataset",
		Code:    "SRC001",
	}
	msgSourceTimeout = UserMessage{
		Message: "A dataset took too long to load",
		Action:  "Raise SOURCE_FETCH_TIMEOUT or check the remote host",
		Code:    "SRC002",
	}
	msgSnapshotNotReady = UserMessage{
		Message: "Data is not available yet",
		Action:  "Wait for startup to finish; check server logs if this persists",
		Code:    "SNAP001",
	}
	msgSnapshotPublished = UserMessage{
		Message: "Data has already been published",
		Action:  "Restart the service to load new data",
		Code:    "SNAP002",
	}
	msgUnknownChart = UserMessage{
		Message: "Unknown chart",
		Action:  "Use one of: tariff-impact, deficit-infrastructure, historical-trends, top-affected",
		Code:    "CHART001",
	}
	msgCountryNotFound = UserMessage{
		Message: "No trend data for this country",
		Action:  "Check the spelling; country names must match the dataset exactly",
		Code:    "TRD001",
	}
	msgScoreTable = UserMessage{
		Message: "The scoring table could not be read",
		Action:  "Check SCORING_TABLE_PATH points to a Country;Score file",
		Code:    "CFG001",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}
)

// errorKinds maps sentinels to messages. Order matters: a source timeout is
// both a SourceError and a deadline, and should report as a timeout.
var errorKinds = []struct {
	target error
	msg    UserMessage
}{
	{context.DeadlineExceeded, msgSourceTimeout},
	{ErrSourceUnavailable, msgSourceUnavailable},
	{ErrSnapshotNotReady, msgSnapshotNotReady},
	{ErrSnapshotAlreadyPublished, msgSnapshotPublished},
	{ErrUnknownChart, msgUnknownChart},
	{ErrCountryNotFound, msgCountryNotFound},
	{ErrInvalidScoreTable, msgScoreTable},
	{context.Canceled, msgCancelled},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that crossed a boundary as plain text.
var errorPatterns = []errorPattern{
	{pattern: "timeout", msg: msgSourceTimeout},
	{pattern: "context deadline exceeded", msg: msgSourceTimeout},
	{pattern: "unavailable", msg: msgSourceUnavailable},
	{pattern: "snapshot not ready", msg: msgSnapshotNotReady},
	{pattern: "already published", msg: msgSnapshotPublished},
	{pattern: "unknown chart", msg: msgUnknownChart},
	{pattern: "country not found", msg: msgCountryNotFound},
	{pattern: "rate limit", msg: msgRateLimited},
	{pattern: "context canceled", msg: msgCancelled},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
		}
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

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
