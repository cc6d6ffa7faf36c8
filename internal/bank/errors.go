package bank

import (
	"errors"
	"fmt"
	"time"
)

// ErrBankNotFound means the requested bank id has no configuration entry.
var ErrBankNotFound = errors.New("bank not configured")

// TimeoutError means a slot never reached the ready state within the
// readiness ceiling. LastStatus carries the last vendor-reported state text
// for diagnostics.
type TimeoutError struct {
	SlotID     string
	Elapsed    time.Duration
	LastStatus string
}

func (e *TimeoutError) Error() string {
	if e.LastStatus == "" {
		return fmt.Sprintf("slot %s not ready after %s", e.SlotID, e.Elapsed.Round(time.Second))
	}
	return fmt.Sprintf("slot %s not ready after %s (last status: %s)", e.SlotID, e.Elapsed.Round(time.Second), e.LastStatus)
}

// Vendor send-error taxonomy. Task status "0" is success.
const (
	taskAccepted        = "0"
	taskAuthFailure     = "1"
	taskInvalidPort     = "2"
	taskSimUnregistered = "3"
	taskTimeout         = "4"
	taskDuplicateTID    = "5"
)

var vendorErrorText = map[string]string{
	taskAuthFailure:     "authentication rejected by device",
	taskInvalidPort:     "invalid or unknown port",
	taskSimUnregistered: "SIM is not registered on the network",
	taskTimeout:         "device timed out submitting the message",
	taskDuplicateTID:    "duplicated transaction id",
}

// VendorError is an explicit rejection from the bank hardware. Terminal:
// retrying a definitively-rejected command wastes the retry budget.
type VendorError struct {
	Code   string
	Reason string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("vendor rejected send (code %s): %s", e.Code, e.Reason)
}

func newVendorError(code string) *VendorError {
	reason, ok := vendorErrorText[code]
	if !ok {
		reason = "unrecognized device error"
	}
	return &VendorError{Code: code, Reason: reason}
}
