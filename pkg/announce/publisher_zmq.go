//go:build zmq && !nng
// +build zmq,!nng

package announce

import (
	"fmt"

	zmq "github.com/pebbe/zmq4"
)

// zmqPublisher broadcasts events over a ZeroMQ PUB socket.
type zmqPublisher struct {
	sock *zmq.Socket
}

// NewPublisher binds a PUB socket on addr (e.g. tcp://*:9410) and
// returns a publisher backed by it.
func NewPublisher(addr string) (Publisher, error) {
	sock, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf("announce: create PUB socket: %w", err)
	}
	if err := sock.Bind(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("announce: bind %s: %w", addr, err)
	}
	return &zmqPublisher{sock: sock}, nil
}

func (p *zmqPublisher) Publish(e Event) error {
	data, err := e.Encode()
	if err != nil {
		return err
	}
	_, err = p.sock.SendBytes(data, 0)
	return err
}

func (p *zmqPublisher) Close() error {
	return p.sock.Close()
}
