package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrDecode            = errors.New("protocol: decode failed")
	ErrTruncated         = errors.New("protocol: truncated envelope")
	ErrUnknownPacketType = errors.New("protocol: unknown packet type")
	ErrPayloadTooLarge   = errors.New("protocol: payload exceeds maximum size")
	ErrTypeMismatch      = errors.New("protocol: payload type echo mismatch")
	ErrBadMarker         = errors.New("protocol: unexpected marker byte")
)

// DecodeError reports which field of which packet failed to decode.
// errors.Is(err, ErrDecode) holds for every DecodeError.
type DecodeError struct {
	Type  PacketType
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s.%s: %v", e.Type, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
