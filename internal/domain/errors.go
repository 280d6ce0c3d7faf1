package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNetwork
	KindTimeout
	KindRequest // remote rejected the request (400 and other non-auth 4xx)
	KindAuthorization
	KindNotFound
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRequest:
		return "request"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Error is the tagged failure every port returns instead of ad-hoc response shapes.
type Error struct {
	Kind    ErrorKind
	Op      string // e.g. "voyager.available-hotels", "stay.check_in"
	Status  int    // remote HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrInvalidOrder     = errors.New("check-out date must be after check-in date")
	ErrPastCheckIn      = errors.New("check-in date cannot be in the past")
	ErrNoSession        = errors.New("session not found")
	ErrHotelNotSelected = errors.New("please select a hotel first")
	ErrNotFound         = errors.New("not found")
)

func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

// KindOf classifies any error, including bare context and net errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidOrder), errors.Is(err, ErrPastCheckIn), errors.Is(err, ErrHotelNotSelected):
		return KindValidation
	case errors.Is(err, ErrNoSession):
		return KindAuthorization
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	return KindUnknown
}

// UserMessage is the notification text shown for err.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	switch KindOf(err) {
	case KindValidation, KindNotFound:
		return err.Error()
	case KindAuthorization:
		return "Authentication required."
	case KindTimeout:
		return "Request timed out. Please try again."
	case KindNetwork:
		return "Network error. Please check your connection."
	case KindServer:
		return "The booking service is unavailable. Please try again later."
	}
	return "Something went wrong. Please try again."
}
