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
	"io"
	"time"

	tans "github.com/flanglet/tans-go"
	kio "github.com/flanglet/tans-go/io"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// BlockDecompressor decodes a stream of frames
type BlockDecompressor struct {
	inputName  string
	outputName string
	overwrite  bool
	stdin      io.Reader
	stdout     io.Writer
	listeners  []tans.Listener
}

// NewBlockDecompressor creates a new instance of BlockDecompressor from the
// command line options
func NewBlockDecompressor(ctx *cli.Context) (*BlockDecompressor, error) {
	this := &BlockDecompressor{}
	this.inputName = ctx.String(_FLAG_INPUT)
	this.outputName = ctx.String(_FLAG_OUTPUT)
	this.overwrite = ctx.Bool(_FLAG_FORCE)
	this.stdin = ctx.App.Reader
	this.stdout = ctx.App.Writer
	this.listeners = newListeners()
	return this, nil
}

// Decompress decodes all the frames of the input and writes the data to the
// output. Returns the exit code and the error, if any.
func (this *BlockDecompressor) Decompress() (int, error) {
	before := time.Now()
	input, err := openInput(this.inputName, this.stdin)

	if err != nil {
		return tans.ERR_OPEN_FILE, err
	}

	defer input.Close()
	fr, err := kio.NewFrameReader(input, this.listeners...)

	if err != nil {
		return exitCode(err, tans.ERR_INVALID_PARAM), err
	}

	output, err := createOutput(this.outputName, this.stdout, this.overwrite)

	if err != nil {
		return tans.ERR_OPEN_FILE, err
	}

	written, err := io.Copy(output, fr)

	if err != nil {
		output.Close()
		return exitCode(err, tans.ERR_WRITE_FILE), err
	}

	if err = output.Close(); err != nil {
		return tans.ERR_WRITE_FILE, err
	}

	log.WithFields(logrus.Fields{
		"input":    this.inputName,
		"frames":   fr.Frames(),
		"written":  written,
		"duration": time.Since(before),
	}).Info("Decompression complete")
	return 0, nil
}

func decompress(ctx *cli.Context) error {
	bd, err := NewBlockDecompressor(ctx)

	if err != nil {
		return cli.Exit(err, tans.ERR_INVALID_PARAM)
	}

	if code, err := bd.Decompress(); err != nil {
		return cli.Exit(err, code)
	}

	return nil
}
