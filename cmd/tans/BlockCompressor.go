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
	"io"
	"os"
	"strings"
	"time"

	tans "github.com/flanglet/tans-go"
	kio "github.com/flanglet/tans-go/io"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// openInput opens the named file or returns the reader for STDIN
func openInput(name string, stdin io.Reader) (io.ReadCloser, error) {
	if strings.ToUpper(name) == _STDIN {
		return io.NopCloser(stdin), nil
	}

	fi, err := os.Stat(name)

	if err != nil {
		return nil, fmt.Errorf("Cannot access input file '%s': %w", name, err)
	}

	if fi.IsDir() {
		return nil, fmt.Errorf("Input file '%s' is a directory", name)
	}

	return os.Open(name)
}

// createOutput creates the named file or returns the writer for STDOUT or
// a writer discarding everything for NONE
func createOutput(name string, stdout io.Writer, overwrite bool) (io.WriteCloser, error) {
	switch strings.ToUpper(name) {
	case _STDOUT:
		return nopWriteCloser{stdout}, nil

	case _NONE:
		return nopWriteCloser{io.Discard}, nil
	}

	if fi, err := os.Stat(name); err == nil {
		if fi.IsDir() {
			return nil, fmt.Errorf("Output file '%s' is a directory", name)
		}

		if overwrite == false {
			return nil, fmt.Errorf("File '%s' exists and the 'force' command line option has not been provided", name)
		}
	}

	return os.Create(name)
}

// exitCode returns the code carried by the error or the default code
func exitCode(err error, defaultCode int) int {
	var ioErr *kio.IOError

	if errors.As(err, &ioErr) {
		return ioErr.ErrorCode()
	}

	return defaultCode
}

// BlockCompressor compresses an input into a stream of frames
type BlockCompressor struct {
	inputName  string
	outputName string
	logRange   uint
	blockSize  uint
	overwrite  bool
	stdin      io.Reader
	stdout     io.Writer
	listeners  []tans.Listener
}

// NewBlockCompressor creates a new instance of BlockCompressor from the
// command line options
func NewBlockCompressor(ctx *cli.Context) (*BlockCompressor, error) {
	this := &BlockCompressor{}
	this.inputName = ctx.String(_FLAG_INPUT)
	this.outputName = ctx.String(_FLAG_OUTPUT)
	this.logRange = ctx.Uint(_FLAG_LOG_RANGE)
	this.blockSize = ctx.Uint(_FLAG_BLOCK_SIZE)
	this.overwrite = ctx.Bool(_FLAG_FORCE)
	this.stdin = ctx.App.Reader
	this.stdout = ctx.App.Writer

	if tans.IsSpreadableLogRange(this.logRange) == false {
		return nil, fmt.Errorf("Invalid log range: %d (must be in [%d..%d], except 1 and 3)", this.logRange,
			tans.MIN_LOG_RANGE, tans.MAX_LOG_RANGE)
	}

	if this.blockSize < kio.MIN_BLOCK_SIZE || this.blockSize > kio.MAX_FRAME_SYMBOLS {
		return nil, fmt.Errorf("Invalid block size: %d (must be in [%d..%d])", this.blockSize,
			kio.MIN_BLOCK_SIZE, kio.MAX_FRAME_SYMBOLS)
	}

	this.listeners = newListeners()
	return this, nil
}

// Compress reads the whole input and writes the frames to the output.
// Returns the exit code and the error, if any.
func (this *BlockCompressor) Compress() (int, error) {
	before := time.Now()
	input, err := openInput(this.inputName, this.stdin)

	if err != nil {
		return tans.ERR_OPEN_FILE, err
	}

	defer input.Close()
	output, err := createOutput(this.outputName, this.stdout, this.overwrite)

	if err != nil {
		return tans.ERR_OPEN_FILE, err
	}

	fw, err := kio.NewFrameWriter(output, this.logRange, this.blockSize, this.listeners...)

	if err != nil {
		output.Close()
		return exitCode(err, tans.ERR_INVALID_PARAM), err
	}

	read, err := io.Copy(fw, input)

	if err != nil {
		output.Close()
		return exitCode(err, tans.ERR_READ_FILE), err
	}

	// Writes the last frame and closes the output
	if err = fw.Close(); err != nil {
		return exitCode(err, tans.ERR_WRITE_FILE), err
	}

	fields := logrus.Fields{
		"input":    this.inputName,
		"read":     read,
		"written":  fw.Written(),
		"frames":   fw.Frames(),
		"duration": time.Since(before),
	}

	if read != 0 {
		fields["ratio"] = float64(fw.Written()) / float64(read)
	}

	log.WithFields(fields).Info("Compression complete")
	return 0, nil
}

func compress(ctx *cli.Context) error {
	bc, err := NewBlockCompressor(ctx)

	if err != nil {
		return cli.Exit(err, tans.ERR_INVALID_PARAM)
	}

	if code, err := bc.Compress(); err != nil {
		return cli.Exit(err, code)
	}

	return nil
}
