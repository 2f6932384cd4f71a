//go:build !nng && !zmq
// +build !nng,!zmq

package announce

// NewPublisher reports that no message transport was compiled in.
// Build with -tags nng or -tags zmq to enable one.
func NewPublisher(addr string) (Publisher, error) {
	return nil, ErrTransportUnavailable
}
