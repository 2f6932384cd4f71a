//go:build nng
// +build nng

package announce

import (
	"fmt"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// nngPublisher broadcasts events over a mangos PUB socket.
type nngPublisher struct {
	sock mangos.Socket
}

// NewPublisher binds a PUB socket on addr (e.g. tcp://0.0.0.0:9410)
// and returns a publisher backed by it.
func NewPublisher(addr string) (Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("announce: create pub socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("announce: listen on %s: %w", addr, err)
	}
	return &nngPublisher{sock: sock}, nil
}

func (p *nngPublisher) Publish(e Event) error {
	data, err := e.Encode()
	if err != nil {
		return err
	}
	return p.sock.Send(data)
}

func (p *nngPublisher) Close() error {
	return p.sock.Close()
}
