package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/fibre/pkg/dom"
)

// EventType identifies the type of client event.
type EventType uint8

// Event type constants.
const (
	// Mouse events (0x01-0x07)
	EventClick      EventType = 0x01
	EventDblClick   EventType = 0x02
	EventMouseEnter EventType = 0x06
	EventMouseLeave EventType = 0x07

	// Form events (0x10-0x14)
	EventInput  EventType = 0x10
	EventChange EventType = 0x11
	EventSubmit EventType = 0x12
	EventFocus  EventType = 0x13
	EventBlur   EventType = 0x14

	// Keyboard events (0x20-0x21)
	EventKeyDown EventType = 0x20
	EventKeyUp   EventType = 0x21

	// Animation and transition events (0x54-0x5A)
	EventAnimationEnd     EventType = 0x54
	EventTransitionEnd    EventType = 0x58
	EventTransitionCancel EventType = 0x5A

	// EventCustom carries its DOM name in EventFrame.Name.
	EventCustom EventType = 0xFF
)

var eventNames = map[EventType]string{
	EventClick:            "click",
	EventDblClick:         "dblclick",
	EventMouseEnter:       "mouseenter",
	EventMouseLeave:       "mouseleave",
	EventInput:            "input",
	EventChange:           "change",
	EventSubmit:           "submit",
	EventFocus:            "focus",
	EventBlur:             "blur",
	EventKeyDown:          "keydown",
	EventKeyUp:            "keyup",
	EventAnimationEnd:     "animationend",
	EventTransitionEnd:    "transitionend",
	EventTransitionCancel: "transitioncancel",
}

var eventTypes = func() map[string]EventType {
	m := make(map[string]EventType, len(eventNames))
	for t, name := range eventNames {
		m[name] = t
	}
	return m
}()

// String returns the DOM name of the event type, or "custom".
func (et EventType) String() string {
	if name, ok := eventNames[et]; ok {
		return name
	}
	if et == EventCustom {
		return "custom"
	}
	return "unknown"
}

// Event errors.
var (
	ErrUnknownEventType = errors.New("protocol: unknown event type")
	ErrEmptyEventName   = errors.New("protocol: custom event without name")
)

// EventFrame is an event sent by a viewer for a node of the served
// document.
type EventFrame struct {
	Seq   uint64
	Type  EventType
	Name  string // DOM event name; only encoded for EventCustom
	Path  []int  // Target path relative to the body element
	Value string // Input value, key name, ...
}

// NewEvent creates an event frame for a DOM event name, using EventCustom
// for names without a dedicated type.
func NewEvent(seq uint64, name string, path []int, value string) *EventFrame {
	ev := &EventFrame{Seq: seq, Path: path, Value: value}
	if t, ok := eventTypes[name]; ok {
		ev.Type = t
	} else {
		ev.Type = EventCustom
		ev.Name = name
	}
	return ev
}

// EventName returns the DOM event name.
func (ev *EventFrame) EventName() string {
	if ev.Type == EventCustom {
		return ev.Name
	}
	return eventNames[ev.Type]
}

// Frame encodes the event into an event frame.
func (ev *EventFrame) Frame() (*Frame, error) {
	e := NewEncoder()
	if err := ev.encode(e); err != nil {
		return nil, err
	}
	if e.Len() > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	return NewFrame(FrameEvent, e.Bytes()), nil
}

func (ev *EventFrame) encode(e *Encoder) error {
	e.WriteUvarint(ev.Seq)
	e.WriteByte(byte(ev.Type))
	switch {
	case ev.Type == EventCustom:
		if ev.Name == "" {
			return ErrEmptyEventName
		}
		e.WriteString(ev.Name)
	case eventNames[ev.Type] == "":
		return fmt.Errorf("%w: 0x%02x", ErrUnknownEventType, byte(ev.Type))
	}
	e.WritePath(ev.Path)
	e.WriteString(ev.Value)
	return nil
}

// DecodeEvent decodes the payload of an event frame.
func DecodeEvent(data []byte) (*EventFrame, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	b, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ev := &EventFrame{Seq: seq, Type: EventType(b)}
	switch {
	case ev.Type == EventCustom:
		if ev.Name, err = d.ReadString(); err != nil {
			return nil, err
		}
		if ev.Name == "" {
			return nil, ErrEmptyEventName
		}
	case eventNames[ev.Type] == "":
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownEventType, b)
	}
	if ev.Path, err = d.ReadPath(); err != nil {
		return nil, err
	}
	if ev.Value, err = d.ReadString(); err != nil {
		return nil, err
	}
	return ev, nil
}

// Dispatch dispatches the event on the node its path resolves to in doc.
func (ev *EventFrame) Dispatch(doc *dom.Document) (*dom.Event, error) {
	target := doc.NodeAt(ev.Path)
	if target == nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotFound, ev.Path)
	}
	return doc.DispatchEventValue(target, ev.EventName(), ev.Value), nil
}
