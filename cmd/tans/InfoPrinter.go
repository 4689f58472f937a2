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

package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	tans "github.com/flanglet/tans-go"
	"github.com/sirupsen/logrus"
)

// InfoPrinter is a Listener that logs the table construction, frame and
// encoding/decoding events (verbose option of the commands)
type InfoPrinter struct {
	logger logrus.Ext1FieldLogger
	starts map[int]time.Time
	lock   sync.Mutex
	blocks int
}

// NewInfoPrinter creates a new instance of InfoPrinter logging to the logger
func NewInfoPrinter(logger logrus.Ext1FieldLogger) (*InfoPrinter, error) {
	if logger == nil {
		return nil, errors.New("Invalid null logger parameter")
	}

	this := &InfoPrinter{}
	this.logger = logger
	this.starts = make(map[int]time.Time)
	return this, nil
}

// ProcessEvent logs the event
func (this *InfoPrinter) ProcessEvent(evt *tans.Event) {
	switch evt.Type() {
	case tans.EVT_ENCODING_START, tans.EVT_DECODING_START:
		this.lock.Lock()
		this.starts[evt.Type()] = evt.Time()
		this.lock.Unlock()
		this.logger.Trace(evt.String())

	case tans.EVT_ENCODING_END, tans.EVT_DECODING_END:
		this.lock.Lock()
		t0, exists := this.starts[evt.Type()-1]
		delete(this.starts, evt.Type()-1)
		this.blocks++
		id := this.blocks
		this.lock.Unlock()

		if exists == false {
			this.logger.Trace(evt.String())
			return
		}

		fields := logrus.Fields{
			"block":    id,
			"size":     evt.Size(),
			"bits":     evt.Bits(),
			"duration": evt.Time().Sub(t0),
		}

		if evt.Size() != 0 {
			fields["ratio"] = float64(evt.Bits()) / float64(8*evt.Size())
		}

		if evt.Type() == tans.EVT_ENCODING_END {
			this.logger.WithFields(fields).Debug("Block encoded")
		} else {
			this.logger.WithFields(fields).Debug("Block decoded")
		}

	case tans.EVT_FRAME_INFO:
		if evt.HashType() == tans.EVT_HASH_NONE {
			this.logger.Debug(evt.String())
			return
		}

		this.logger.WithFields(logrus.Fields{
			"size": evt.Size(),
			"bits": evt.Bits(),
			"hash": fmt.Sprintf("%016x", evt.Hash()),
		}).Debug("Frame")

	case tans.EVT_TABLES_BUILT:
		this.logger.Debug(evt.String())

	default:
		this.logger.Trace(evt.String())
	}
}

// Blocks returns the number of blocks encoded or decoded so far
func (this *InfoPrinter) Blocks() int {
	this.lock.Lock()
	defer this.lock.Unlock()
	return this.blocks
}
