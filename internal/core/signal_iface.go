package core

import "github.com/dkeye/Huddle/internal/domain"

// Frame is an encoded outbound message.
type Frame []byte

// DeliveryResult is the outcome of one send to one connection.
type DeliveryResult struct {
	Participant domain.ParticipantID
	Conn        SignalConnection
	Err         error
}

func (r DeliveryResult) OK() bool { return r.Err == nil }

// PublishResult reports delivery stats/backpressure for a fan-out.
type PublishResult struct {
	SendTo  int
	Dropped []DeliveryResult
}
