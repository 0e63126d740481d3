package keymanager

import (
	"errors"
	"fmt"

	"github.com/annchain/keymanager/common"
)

// ErrorKind classifies every error the key manager returns. None of them is
// retried internally.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// AuthorizationError: caller lacks the required role.
	AuthorizationError
	// ValidationError: malformed or out-of-policy input; the call had no effect.
	ValidationError
	// StateError: the registry cannot serve the request in its current state.
	StateError
	// SafetyError: the request would delete a committee that may still be current.
	SafetyError
	// StorageError: the persistence backend failed; in-memory state is unchanged.
	StorageError
)

func (k ErrorKind) String() string {
	switch k {
	case AuthorizationError:
		return "AuthorizationError"
	case ValidationError:
		return "ValidationError"
	case StateError:
		return "StateError"
	case SafetyError:
		return "SafetyError"
	case StorageError:
		return "StorageError"
	default:
		return "Unknown"
	}
}

type codedError struct {
	kind ErrorKind
	code string
}

func (e *codedError) Error() string   { return e.code }
func (e *codedError) Kind() ErrorKind { return e.kind }
func (e *codedError) Code() string    { return e.code }

var (
	ErrUnauthorized           = &codedError{AuthorizationError, "Unauthorized"}
	ErrEmptyMembership        = &codedError{ValidationError, "EmptyMembership"}
	ErrNonMonotonicTimestamp  = &codedError{ValidationError, "NonMonotonicTimestamp"}
	ErrIdSpaceExhausted       = &codedError{StateError, "IdSpaceExhausted"}
	ErrNotFound               = &codedError{StateError, "NotFound"}
	ErrNoCommitteeScheduled   = &codedError{StateError, "NoCommitteeScheduled"}
	ErrInvalidRange           = &codedError{ValidationError, "InvalidRange"}
	ErrTooRecentToPrune       = &codedError{SafetyError, "TooRecentToPrune"}
	ErrAlreadySet             = &codedError{StateError, "AlreadySet"}
	ErrInvalidAddress         = &codedError{ValidationError, "InvalidAddress"}
	ErrEmptyThresholdKey      = &codedError{ValidationError, "EmptyThresholdKey"}
	ErrInvalidSignatureLength = &codedError{ValidationError, "InvalidSignatureLength"}
	ErrInvalidDigest          = &codedError{ValidationError, "InvalidDigest"}
	ErrStorage                = &codedError{StorageError, "StorageFailure"}
)

// UnauthorizedError reports which role the caller was missing.
type UnauthorizedError struct {
	Caller common.Address
	Role   Role
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("Unauthorized: %s does not hold role %s", e.Caller.Hex(), e.Role)
}
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *UnauthorizedError) Kind() ErrorKind      { return AuthorizationError }
func (e *UnauthorizedError) Code() string         { return ErrUnauthorized.code }

// NonMonotonicTimestampError carries the rejected and the last accepted timestamp.
type NonMonotonicTimestampError struct {
	Given uint64
	Last  uint64
}

func (e *NonMonotonicTimestampError) Error() string {
	return fmt.Sprintf("NonMonotonicTimestamp: given %d, last %d", e.Given, e.Last)
}
func (e *NonMonotonicTimestampError) Is(target error) bool { return target == ErrNonMonotonicTimestamp }
func (e *NonMonotonicTimestampError) Kind() ErrorKind      { return ValidationError }
func (e *NonMonotonicTimestampError) Code() string         { return ErrNonMonotonicTimestamp.code }

type NotFoundError struct {
	Id uint64
}

func (e *NotFoundError) Error() string        { return fmt.Sprintf("NotFound: committee %d", e.Id) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *NotFoundError) Kind() ErrorKind      { return StateError }
func (e *NotFoundError) Code() string         { return ErrNotFound.code }

// InvalidRangeError is returned by PruneUpTo when UpTo lies outside [Oldest, Next).
type InvalidRangeError struct {
	UpTo   uint64
	Oldest uint64
	Next   uint64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("InvalidRange: upTo %d outside [%d, %d)", e.UpTo, e.Oldest, e.Next)
}
func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }
func (e *InvalidRangeError) Kind() ErrorKind      { return ValidationError }
func (e *InvalidRangeError) Code() string         { return ErrInvalidRange.code }

type TooRecentToPruneError struct {
	Id                 uint64
	EffectiveTimestamp uint64
	Now                uint64
}

func (e *TooRecentToPruneError) Error() string {
	return fmt.Sprintf("TooRecentToPrune: committee %d effective at %d, now %d", e.Id, e.EffectiveTimestamp, e.Now)
}
func (e *TooRecentToPruneError) Is(target error) bool { return target == ErrTooRecentToPrune }
func (e *TooRecentToPruneError) Kind() ErrorKind      { return SafetyError }
func (e *TooRecentToPruneError) Code() string         { return ErrTooRecentToPrune.code }

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string        { return fmt.Sprintf("StorageFailure: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error        { return e.Err }
func (e *StoreError) Is(target error) bool { return target == ErrStorage }
func (e *StoreError) Kind() ErrorKind      { return StorageError }
func (e *StoreError) Code() string         { return ErrStorage.code }

// KindOf returns the kind of err, KindUnknown if err is not a key manager error.
func KindOf(err error) ErrorKind {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// CodeOf returns the stable failure identifier of err, empty if err is not a key manager error.
func CodeOf(err error) string {
	var c interface{ Code() string }
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}
