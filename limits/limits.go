// Package limits provides centralized size and bound constants for the filenode engine.
// This ensures consistent validation across the registry, the timeline and the chaos harness.
package limits

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// MaxTransferIDLength is the maximum length of a transfer identifier in bytes.
	MaxTransferIDLength = 128

	// MaxDeviceIDLength is the maximum length of a device identifier in bytes.
	MaxDeviceIDLength = 256

	// DefaultChunkSize is the chunk size used by the simulated transport (1KB).
	DefaultChunkSize = 1024

	// MaxChunkSize is the maximum allowed chunk size to prevent resource exhaustion.
	MaxChunkSize = 65536

	// DefaultTimelineCapacity is the number of timeline entries kept when no capacity is configured.
	DefaultTimelineCapacity = 1000

	// MaxTimelineCapacity bounds the in-memory timeline (1M entries).
	MaxTimelineCapacity = 1 << 20

	// MaxSimulatedTransferBytes bounds a chaos transfer, whose payload is reassembled in memory (64MB).
	MaxSimulatedTransferBytes = 1 << 26
)

var (
	// ErrIdentifierEmpty indicates an empty identifier was provided
	ErrIdentifierEmpty = errors.New("empty identifier")

	// ErrIdentifierTooLong indicates an identifier exceeds its maximum length
	ErrIdentifierTooLong = errors.New("identifier too long")

	// ErrIdentifierInvalid indicates an identifier is not valid UTF-8 or contains control characters
	ErrIdentifierInvalid = errors.New("identifier contains invalid characters")

	// ErrOutOfRange indicates a numeric setting is outside its permitted bounds
	ErrOutOfRange = errors.New("value out of range")
)

// ValidateIdentifier validates an identifier against the specified maximum length.
// Returns an error with context including the actual and maximum sizes.
func ValidateIdentifier(id string, maxLen int) error {
	if len(id) == 0 {
		return ErrIdentifierEmpty
	}
	if len(id) > maxLen {
		return fmt.Errorf("%w: length %d exceeds limit %d", ErrIdentifierTooLong, len(id), maxLen)
	}
	if !utf8.ValidString(id) {
		return ErrIdentifierInvalid
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: control character %U", ErrIdentifierInvalid, r)
		}
	}
	return nil
}

// ValidateTransferID validates a transfer identifier against MaxTransferIDLength.
func ValidateTransferID(id string) error {
	return ValidateIdentifier(id, MaxTransferIDLength)
}

// ValidateDeviceID validates a device identifier against MaxDeviceIDLength.
func ValidateDeviceID(id string) error {
	return ValidateIdentifier(id, MaxDeviceIDLength)
}

// ValidateChunkSize checks that size lies in [1, MaxChunkSize].
func ValidateChunkSize(size uint64) error {
	if size == 0 || size > MaxChunkSize {
		return fmt.Errorf("%w: chunk size %d not in [1, %d]", ErrOutOfRange, size, MaxChunkSize)
	}
	return nil
}

// ValidateSimulatedSize checks that a chaos transfer fits in MaxSimulatedTransferBytes.
func ValidateSimulatedSize(total uint64) error {
	if total > MaxSimulatedTransferBytes {
		return fmt.Errorf("%w: transfer size %d exceeds limit %d", ErrOutOfRange, total, MaxSimulatedTransferBytes)
	}
	return nil
}

// TimelineCapacity normalizes a configured timeline capacity.
// Zero or negative values select DefaultTimelineCapacity; values above
// MaxTimelineCapacity are reported as an error.
func TimelineCapacity(capacity int) (int, error) {
	if capacity <= 0 {
		return DefaultTimelineCapacity, nil
	}
	if capacity > MaxTimelineCapacity {
		return 0, fmt.Errorf("%w: timeline capacity %d exceeds limit %d", ErrOutOfRange, capacity, MaxTimelineCapacity)
	}
	return capacity, nil
}
