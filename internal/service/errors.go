package service

import "fmt"

type ErrorKind string

const (
	KindItemUnavailable      ErrorKind = "ITEM_UNAVAILABLE"
	KindInsufficientQuantity ErrorKind = "INSUFFICIENT_QUANTITY"
	KindTimeConflict         ErrorKind = "TIME_CONFLICT"
	KindValidation           ErrorKind = "VALIDATION_ERROR"
)

// ValidationError rejects a cart mutation before it reaches the remote API.
type ValidationError struct {
	Kind          ErrorKind
	Message       string
	ProductItemID string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(productItemID, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindValidation, Message: fmt.Sprintf(format, args...), ProductItemID: productItemID}
}
