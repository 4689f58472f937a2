/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tans

import (
	"fmt"
	"time"
)

const (
	EVT_TABLES_BUILT   = 0 // Coding and decoding tables built
	EVT_ENCODING_START = 1 // Encoding starts
	EVT_ENCODING_END   = 2 // Encoding ends
	EVT_DECODING_START = 3 // Decoding starts
	EVT_DECODING_END   = 4 // Decoding ends
	EVT_FRAME_INFO     = 5 // Frame header information

	EVT_HASH_NONE   = 0
	EVT_HASH_64BITS = 64
)

// Event a table construction or encoding/decoding event
type Event struct {
	eventType int
	size      int64 // bytes
	bits      uint64
	hash      uint64
	hashType  int
	eventTime time.Time
	msg       string
}

// NewEventFromString creates a new Event instance that wraps a message
func NewEventFromString(evtType int, msg string, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, msg: msg, eventTime: evtTime}
}

// NewEvent creates a new Event instance with size, bit count and hash info.
// Returns nil if the hashType is not in { EVT_HASH_NONE, EVT_HASH_64BITS }
func NewEvent(evtType int, size int64, bits uint64, hash uint64, hashType int, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	if hashType != EVT_HASH_NONE && hashType != EVT_HASH_64BITS {
		return nil
	}

	return &Event{eventType: evtType, size: size, bits: bits, hash: hash,
		hashType: hashType, eventTime: evtTime}
}

// Type returns the type info
func (this *Event) Type() int {
	return this.eventType
}

// Time returns the time info
func (this *Event) Time() time.Time {
	return this.eventTime
}

// Size returns the number of bytes processed
func (this *Event) Size() int64 {
	return this.size
}

// Bits returns the number of bits in the bitstream
func (this *Event) Bits() uint64 {
	return this.bits
}

// Hash returns the hash info
func (this *Event) Hash() uint64 {
	return this.hash
}

// HashType returns EVT_HASH_NONE or EVT_HASH_64BITS
func (this *Event) HashType() int {
	return this.hashType
}

// Message returns the wrapped message, if any
func (this *Event) Message() string {
	return this.msg
}

// TypeName returns a printable name for the event type
func (this *Event) TypeName() string {
	switch this.eventType {
	case EVT_TABLES_BUILT:
		return "TABLES_BUILT"

	case EVT_ENCODING_START:
		return "ENCODING_START"

	case EVT_ENCODING_END:
		return "ENCODING_END"

	case EVT_DECODING_START:
		return "DECODING_START"

	case EVT_DECODING_END:
		return "DECODING_END"

	case EVT_FRAME_INFO:
		return "FRAME_INFO"
	}

	return "UNKNOWN"
}

// String returns a string representation of this event.
// If the event wraps a message, the message is returned.
// Otherwise a string is built from the fields.
func (this *Event) String() string {
	if len(this.msg) > 0 {
		return this.msg
	}

	hash := ""

	if this.hashType != EVT_HASH_NONE {
		hash = fmt.Sprintf(", \"hash\": %x", this.hash)
	}

	return fmt.Sprintf("{ \"type\":\"%s\", \"size\":%d, \"bits\":%d, \"time\":%d%s }",
		this.TypeName(), this.size, this.bits, this.eventTime.UnixNano()/1000000, hash)
}

// Listener is an interface implemented by event processors
type Listener interface {
	// ProcessEvent is the method called whenever a Listener receives an event.
	ProcessEvent(evt *Event)
}

// NotifyListeners sends the event to every listener
func NotifyListeners(listeners []Listener, evt *Event) {
	if evt == nil {
		return
	}

	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}
