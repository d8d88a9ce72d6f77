package protocol

import "errors"

// Error taxonomy shared by the encoder, the carrier transmitter and the
// session layer. Callers match with errors.Is; producers wrap with detail.
var (
	ErrNotInitialized      = errors.New("transmitter not initialized")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrBufferTooSmall      = errors.New("symbol buffer too small")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrNotFound            = errors.New("protocol not found")
)
