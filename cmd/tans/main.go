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

// tans builds tabled Asymmetric Numeral System tables, encodes and decodes
// data with them and compresses files into streams of frames.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	tans "github.com/flanglet/tans-go"
	kio "github.com/flanglet/tans-go/io"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	APP_HEADER = "tANS 1.0 (C) 2026,  Frederic Langlet"
	_STDIN     = "STDIN"
	_STDOUT    = "STDOUT"
	_NONE      = "NONE"
)

var log = logrus.New()

func init() {
	// -v is the verbosity
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
}

const (
	_FLAG_LOG_RANGE    = "log-range"
	_FLAG_VERBOSITY    = "verbosity"
	_FLAG_DISTRIBUTION = "distribution"
	_FLAG_INPUT        = "input"
	_FLAG_OUTPUT       = "output"
	_FLAG_FORCE        = "force"
	_FLAG_BLOCK_SIZE   = "block-size"
	_FLAG_COUNT        = "count"
	_FLAG_TRACE        = "trace"
)

// appFlags holds the flags of one application. urfave/cli writes the
// values found in the environment into the flags, so they cannot be
// shared between applications.
type appFlags struct {
	logRange     *cli.UintFlag
	verbosity    *cli.UintFlag
	distribution *cli.StringFlag
	input        *cli.StringFlag
	output       *cli.StringFlag
	force        *cli.BoolFlag
	blockSize    *cli.UintFlag
	count        *cli.IntFlag
	trace        *cli.BoolFlag
}

func newFlags() *appFlags {
	return &appFlags{
		logRange: &cli.UintFlag{
			Name:    _FLAG_LOG_RANGE,
			Aliases: []string{"l"},
			Usage:   fmt.Sprintf("log2 of the table size, in [%d..%d] except 1 and 3", tans.MIN_LOG_RANGE, tans.MAX_LOG_RANGE),
			Value:   tans.DEFAULT_LOG_RANGE,
			EnvVars: []string{"TANS_LOG_RANGE"},
		},
		verbosity: &cli.UintFlag{
			Name:    _FLAG_VERBOSITY,
			Aliases: []string{"v"},
			Usage:   "0=warnings only, 1=summary, 3=tables and blocks, 5=all events",
			Value:   1,
			EnvVars: []string{"TANS_VERBOSITY"},
		},
		distribution: &cli.StringFlag{
			Name:    _FLAG_DISTRIBUTION,
			Aliases: []string{"d"},
			Usage:   "symbol occurrences as 'sym:count,sym:count' (symbols are characters or 0xHH)",
			EnvVars: []string{"TANS_DISTRIBUTION"},
		},
		input: &cli.StringFlag{
			Name:    _FLAG_INPUT,
			Aliases: []string{"i"},
			Usage:   "input file name or 'STDIN'",
			Value:   _STDIN,
			EnvVars: []string{"TANS_INPUT"},
		},
		output: &cli.StringFlag{
			Name:    _FLAG_OUTPUT,
			Aliases: []string{"o"},
			Usage:   "output file name, 'STDOUT' or 'NONE'",
			Value:   _STDOUT,
			EnvVars: []string{"TANS_OUTPUT"},
		},
		force: &cli.BoolFlag{
			Name:    _FLAG_FORCE,
			Aliases: []string{"f"},
			Usage:   "overwrite the output file if it already exists",
		},
		blockSize: &cli.UintFlag{
			Name:    _FLAG_BLOCK_SIZE,
			Aliases: []string{"b"},
			Usage:   fmt.Sprintf("number of input bytes per frame, in [%d..%d]", kio.MIN_BLOCK_SIZE, kio.MAX_FRAME_SYMBOLS),
			Value:   kio.DEFAULT_BLOCK_SIZE,
		},
		count: &cli.IntFlag{
			Name:    _FLAG_COUNT,
			Aliases: []string{"n"},
			Usage:   "number of symbols to decode (0 to decode until the bitstream is empty)",
		},
		trace: &cli.BoolFlag{
			Name:  _FLAG_TRACE,
			Usage: "print the bits written or read to stderr",
		},
	}
}

func newApp() *cli.App {
	f := newFlags()

	app := &cli.App{
		Name:    "tans",
		Usage:   "tabled Asymmetric Numeral System codec",
		Version: "1.0",
		Flags:   []cli.Flag{f.verbosity},
		Commands: []*cli.Command{
			{
				Name:   "tables",
				Usage:  "Builds and prints the coding and decoding tables of a distribution",
				Action: printTables,
				Flags:  []cli.Flag{f.distribution, f.logRange},
			},
			{
				Name:      "encode",
				Usage:     "Encodes a message and prints the bitstream as a binary string",
				ArgsUsage: "[message]",
				Action:    encode,
				Flags:     []cli.Flag{f.distribution, f.logRange, f.input, f.trace},
			},
			{
				Name:      "decode",
				Usage:     "Decodes a bitstream given as a binary string",
				ArgsUsage: "[bits]",
				Action:    decode,
				Flags:     []cli.Flag{f.distribution, f.logRange, f.input, f.count, f.trace},
			},
			{
				Name:   "compress",
				Usage:  "Compresses a file into a stream of frames",
				Action: compress,
				Flags:  []cli.Flag{f.input, f.output, f.logRange, f.blockSize, f.force},
			},
			{
				Name:   "decompress",
				Usage:  "Decompresses a stream of frames",
				Action: decompress,
				Flags:  []cli.Flag{f.input, f.output, f.force},
			},
			{
				Name:   "demo",
				Usage:  "Encodes and decodes the reference message with the reference tables",
				Action: demo,
				Flags:  []cli.Flag{f.trace},
			},
		},
		Before: func(ctx *cli.Context) error {
			setupLogger(ctx.App.ErrWriter, ctx.Uint(_FLAG_VERBOSITY))
			return nil
		},
		// Exit codes are handled by main
		ExitErrHandler: func(*cli.Context, error) {},
	}

	return app
}

func setupLogger(w io.Writer, verbosity uint) {
	usecolor := false

	if f, isFile := w.(*os.File); isFile {
		usecolor = (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"

		if usecolor {
			w = colorable.NewColorable(f)
		}
	}

	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      usecolor,
		DisableColors:    !usecolor,
		DisableTimestamp: true,
	})

	switch {
	case verbosity == 0:
		log.SetLevel(logrus.WarnLevel)
	case verbosity < 3:
		log.SetLevel(logrus.InfoLevel)
	case verbosity < 5:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.TraceLevel)
	}
}

func main() {
	app := newApp()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := tans.ERR_UNKNOWN
		var exitErr cli.ExitCoder

		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}

		os.Exit(code)
	}
}
