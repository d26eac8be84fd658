package domain

import "fmt"

// NotFoundError indicates that a requested entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError creates a NotFoundError for the given entity and identifier.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ValidationError indicates that an input failed a domain validation rule.
type ValidationError struct {
	Message string
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidTransitionError indicates a state change the lifecycle does not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

// NewInvalidTransitionError creates an InvalidTransitionError for the attempted change.
func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// UnauthorizedError indicates the actor is not allowed to perform an operation.
type UnauthorizedError struct {
	Actor     string
	Operation string
}

// NewUnauthorizedError creates an UnauthorizedError for the actor and operation.
func NewUnauthorizedError(actor, operation string) *UnauthorizedError {
	return &UnauthorizedError{Actor: actor, Operation: operation}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("actor %s is not allowed to %s", e.Actor, e.Operation)
}

// ConflictError indicates the operation conflicts with the current state of the
// data, including lost-update races detected by the status compare-and-swap.
// Callers may retry a ConflictError caused by a concurrent transition; other
// domain errors must not be retried.
type ConflictError struct {
	Reason string
}

// NewConflictError creates a ConflictError with the given reason.
func NewConflictError(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// PriceMismatchError indicates the price supplied at creation does not match
// the service's current price.
type PriceMismatchError struct {
	ExpectedCents int64
	GivenCents    int64
}

// NewPriceMismatchError creates a PriceMismatchError with the expected and given prices.
func NewPriceMismatchError(expectedCents, givenCents int64) *PriceMismatchError {
	return &PriceMismatchError{ExpectedCents: expectedCents, GivenCents: givenCents}
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch: the correct price for this service is %d, got %d", e.ExpectedCents, e.GivenCents)
}
