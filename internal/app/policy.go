package app

import "github.com/dkeye/Huddle/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection a send failed on.
type Policy interface {
	OnDeliveryFailed(res core.DeliveryResult) BackpressureAction
}

// SimplePolicy closes any connection that cannot keep up. Closing makes the
// transport report closure, which routes the participant through the reaper.
type SimplePolicy struct{}

func (SimplePolicy) OnDeliveryFailed(res core.DeliveryResult) BackpressureAction {
	if res.Conn == nil {
		return NoAction
	}
	return KickMember
}
