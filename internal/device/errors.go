package device

import "github.com/ekgmon/ekgmon/internal/errors"

const (
	// Lifecycle errors
	ErrOpenFailed   = errors.ErrorCode("device_open_failed")
	ErrCloseFailed  = errors.ErrorCode("device_close_failed")
	ErrDisconnected = errors.ErrorCode("device_disconnected")

	// Decode errors (recovered locally, never propagated out of Next)
	ErrDecodeFailed = errors.ErrorCode("sample_decode_failed")

	// Configuration errors
	ErrInvalidFormat  = errors.ErrorCode("device_invalid_format")
	ErrInvalidChannel = errors.ErrorCode("device_invalid_channel")
)
