package client

import "fmt"

// TransportError is a failure of the channel itself: dial, read, write. It is
// never fatal; the manager schedules a reconnect.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is an inbound envelope that could not be applied. It never
// gets further than Dispatch.
type ProtocolError struct {
	Event string
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("bad %s message: %v", e.Event, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
