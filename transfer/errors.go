package transfer

import "fmt"

// Code classifies a TransferError.
type Code string

const (
	CodeConnectionLost   Code = "CONNECTION_LOST"
	CodeTimeout          Code = "TIMEOUT"
	CodeServerError      Code = "SERVER_ERROR"
	CodeCancelled        Code = "CANCELLED"
	CodeUnknown          Code = "UNKNOWN"
	CodePacketDropped    Code = "PACKET_DROPPED"
	CodeDisconnected     Code = "DISCONNECTED"
	CodeWrongOffset      Code = "WRONG_OFFSET"
	CodeChecksumMismatch Code = "CHECKSUM_MISMATCH"
)

// TransferError is a failure reported by the transport. Retryable is a hint;
// the state machine decides whether a retry actually happens.
type TransferError struct {
	Code      Code   `json:"code" yaml:"code"`
	Message   string `json:"message" yaml:"message"`
	Retryable bool   `json:"retryable" yaml:"retryable"`
}

// NewError creates a TransferError.
func NewError(code Code, message string, retryable bool) TransferError {
	return TransferError{Code: code, Message: message, Retryable: retryable}
}

// Cancelled is the non-retryable error used to abort a transfer that cannot take Cancel directly.
func Cancelled(reason string) TransferError {
	return TransferError{Code: CodeCancelled, Message: reason, Retryable: false}
}

// Error implements the error interface.
func (e TransferError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
