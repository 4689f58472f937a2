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
	"bytes"
	"fmt"
	"io"
	"strings"

	tans "github.com/flanglet/tans-go"
	"github.com/flanglet/tans-go/bitstream"
	"github.com/flanglet/tans-go/entropy"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	demoDistribution = entropy.Distribution{{Symbol: '0', Occurrences: 10}, {Symbol: '1', Occurrences: 10}, {Symbol: '2', Occurrences: 12}}
	demoMessage      = "1102010120"
)

const demoLogRange = 5

// readMessage returns the first positional argument or, if there is none,
// the content of the input
func readMessage(ctx *cli.Context) ([]byte, error) {
	if ctx.Args().Present() {
		return []byte(ctx.Args().First()), nil
	}

	input, err := openInput(ctx.String(_FLAG_INPUT), ctx.App.Reader)

	if err != nil {
		return nil, cli.Exit(err, tans.ERR_OPEN_FILE)
	}

	defer input.Close()
	buf, err := io.ReadAll(input)

	if err != nil {
		return nil, cli.Exit(err, tans.ERR_READ_FILE)
	}

	return buf, nil
}

// buildTables builds the tables from the distribution option or, if the
// option is missing and a message is provided, from the message histogram
func buildTables(ctx *cli.Context, message []byte) (*entropy.Tables, error) {
	logRange := ctx.Uint(_FLAG_LOG_RANGE)
	var dist entropy.Distribution
	var err error

	if ctx.IsSet(_FLAG_DISTRIBUTION) {
		if dist, err = entropy.ParseDistribution(ctx.String(_FLAG_DISTRIBUTION)); err != nil {
			return nil, cli.Exit(err, tans.ERR_INVALID_PARAM)
		}
	} else if message != nil {
		if dist, err = entropy.NewDistributionFromBlock(message, logRange); err != nil {
			return nil, cli.Exit(err, tans.ERR_BUILD_TABLES)
		}

		log.WithField("distribution", dist.String()).Info("Distribution computed from the message")
	} else {
		return nil, cli.Exit(fmt.Sprintf("Missing distribution: use --%s", _FLAG_DISTRIBUTION), tans.ERR_MISSING_PARAM)
	}

	tables, err := entropy.BuildTables(dist, logRange)

	if err != nil {
		return nil, cli.Exit(err, tans.ERR_BUILD_TABLES)
	}

	return tables, nil
}

func newListeners() []tans.Listener {
	printer, err := NewInfoPrinter(log)

	if err != nil {
		return nil
	}

	return []tans.Listener{printer}
}

func printTables(ctx *cli.Context) error {
	tables, err := buildTables(ctx, nil)

	if err != nil {
		return err
	}

	if err = tables.Dump(ctx.App.Writer); err != nil {
		return cli.Exit(err, tans.ERR_WRITE_FILE)
	}

	return nil
}

func encode(ctx *cli.Context) error {
	message, err := readMessage(ctx)

	if err != nil {
		return err
	}

	tables, err := buildTables(ctx, message)

	if err != nil {
		return err
	}

	bits, err := encodeMessage(ctx, message, tables)

	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.App.Writer, bits)
	return nil
}

func encodeMessage(ctx *cli.Context, message []byte, tables *entropy.Tables) (*bitstream.BitBuffer, error) {
	bb := bitstream.NewBitBuffer(uint64(len(message)) * 8)
	var obs tans.OutputBitStream = bb

	if ctx.Bool(_FLAG_TRACE) {
		dbb, err := bitstream.NewDebugBitBuffer(bb, ctx.App.ErrWriter)

		if err != nil {
			return nil, cli.Exit(err, tans.ERR_UNKNOWN)
		}

		obs = dbb
		defer fmt.Fprintln(ctx.App.ErrWriter)
	}

	enc, err := entropy.NewTANSEncoder(obs, tables, newListeners()...)

	if err != nil {
		return nil, cli.Exit(err, tans.ERR_ENCODE)
	}

	if _, err = enc.Write(message); err != nil {
		return nil, cli.Exit(err, tans.ERR_ENCODE)
	}

	log.WithFields(logrus.Fields{
		"symbols": len(message),
		"bits":    bb.Len(),
	}).Info("Message encoded")
	return bb, nil
}

func decode(ctx *cli.Context) error {
	if ctx.IsSet(_FLAG_DISTRIBUTION) == false {
		return cli.Exit(fmt.Sprintf("Missing distribution: use --%s", _FLAG_DISTRIBUTION), tans.ERR_MISSING_PARAM)
	}

	if ctx.Int(_FLAG_COUNT) < 0 {
		return cli.Exit(fmt.Sprintf("Invalid symbol count: %d", ctx.Int(_FLAG_COUNT)), tans.ERR_INVALID_PARAM)
	}

	message, err := readMessage(ctx)

	if err != nil {
		return err
	}

	bb, err := bitstream.ParseBitString(string(bytes.TrimSpace(message)))

	if err != nil {
		return cli.Exit(err, tans.ERR_INVALID_PARAM)
	}

	tables, err := buildTables(ctx, nil)

	if err != nil {
		return err
	}

	res, err := decodeBits(ctx, bb, tables, ctx.Int(_FLAG_COUNT))

	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.App.Writer, string(res))
	return nil
}

func decodeBits(ctx *cli.Context, bb *bitstream.BitBuffer, tables *entropy.Tables, count int) ([]byte, error) {
	var ibs tans.InputBitStream = bb

	if ctx.Bool(_FLAG_TRACE) {
		dbb, err := bitstream.NewDebugBitBuffer(bb, ctx.App.ErrWriter)

		if err != nil {
			return nil, cli.Exit(err, tans.ERR_UNKNOWN)
		}

		ibs = dbb
		defer fmt.Fprintln(ctx.App.ErrWriter)
	}

	dec, err := entropy.NewTANSDecoder(ibs, tables, count, newListeners()...)

	if err != nil {
		return nil, cli.Exit(err, tans.ERR_DECODE)
	}

	res, err := dec.Read()

	if err != nil {
		return nil, cli.Exit(err, tans.ERR_DECODE)
	}

	return res, nil
}

func demo(ctx *cli.Context) error {
	tables, err := entropy.BuildTables(demoDistribution, demoLogRange)

	if err != nil {
		return cli.Exit(err, tans.ERR_BUILD_TABLES)
	}

	if log.IsLevelEnabled(logrus.DebugLevel) {
		var sb strings.Builder
		tables.Dump(&sb)
		log.Debug(sb.String())
	}

	w := ctx.App.Writer
	fmt.Fprintf(w, "Distribution: %s (table size %d)\n", demoDistribution, tables.Size())
	fmt.Fprintf(w, "Message: %s\n", demoMessage)
	bits, err := encodeMessage(ctx, []byte(demoMessage), tables)

	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Encoded: %s (%d bits)\n", bits, bits.Len())
	res, err := decodeBits(ctx, bits.Clone(), tables, 0)

	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Decoded: %s\n", res)

	if string(res) != demoMessage {
		return cli.Exit("Decoded message does not match the original message", tans.ERR_DECODE)
	}

	fmt.Fprintln(w, "Round trip OK")
	return nil
}
