package core

import "pkt.systems/livecoder/schema"

// EventSink receives notices and state transitions from the controller.
type EventSink interface {
	OnNotice(notice schema.Notice)
	OnStateChange(event schema.StateEvent)
}

type discardSink struct{}

func (discardSink) OnNotice(schema.Notice)          {}
func (discardSink) OnStateChange(schema.StateEvent) {}
