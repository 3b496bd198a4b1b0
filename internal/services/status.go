package services

import (
	"errors"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
)

// Status is the single human-readable outcome a coordinator reports for one operation.
// It only distinguishes success from failure; Err keeps the classified cause.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Seq     uint64 `json:"seq,omitempty"`
	Err     error  `json:"-"`
}

func succeeded(seq uint64, message string) Status {
	return Status{OK: true, Message: message, Seq: seq}
}

func failed(seq uint64, message string, err error) Status {
	return Status{OK: false, Message: message, Seq: seq, Err: err}
}

// Superseded reports whether the response was discarded in favour of a newer request
func (s Status) Superseded() bool {
	return errors.Is(s.Err, apperrors.ErrSuperseded)
}

// Code returns the error taxonomy code, or "" on success
func (s Status) Code() string {
	return apperrors.CodeOf(s.Err)
}

// String renders the status for display
func (s Status) String() string {
	if s.OK {
		return s.Message
	}
	if s.Err != nil {
		return s.Message + ": " + s.Err.Error()
	}
	return s.Message
}
