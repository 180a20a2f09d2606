package contracts

import "errors"

// Error definitions shared by the router and its transports.
var (
	ErrPortNotFound     = errors.New("port not found")
	ErrEnumerationFault = errors.New("error enumerating MIDI port")
	ErrOpenFault        = errors.New("error opening MIDI port")
	ErrSendFault        = errors.New("error sending MIDI message")
	ErrNoDestination    = errors.New("no output port configured")
	ErrUnsupportedOS    = errors.New("unsupported operating system")
	ErrRouterClosed     = errors.New("router is closed")
	ErrInvalidDirection = errors.New("invalid port direction")
)
