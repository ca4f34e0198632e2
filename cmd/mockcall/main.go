// Command mockcall plays the telephony provider against a running bridge:
// it rings the incoming call webhook, opens the media stream, streams
// silence and acknowledges playback marks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

type options struct {
	host         string
	callerNumber string
	firstMessage string
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("mockcall", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.host, "host", "localhost:8000", "Bridge host and port")
	fs.StringVar(&opts.callerNumber, "caller", "+31623925157", "Caller number sent with the call")
	fs.StringVar(&opts.firstMessage, "first-message", "Say 'Hello, this is Sofi. What language would you prefer: English, Dutch, or Turkish?'", "Opening instruction sent as a stream parameter")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func runMain(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return 2
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	call := newCaller(opts.host, opts.callerNumber, opts.firstMessage, func(event callEvent) {
		program.Send(callEventMsg(event))
	})

	var hangUpOnce sync.Once
	hangUp := func() {
		hangUpOnce.Do(func() {
			cancel()
			_ = call.hangUp()
		})
	}
	program = tea.NewProgram(newModel(opts.callerNumber, hangUp), tea.WithAltScreen())

	go func() {
		twiml, err := call.ring(ctx)
		if err == nil {
			err = call.connect(ctx)
		}
		if err != nil {
			program.Send(callFailedMsg{err: err})
			return
		}
		program.Send(connectedMsg{twiml: twiml})

		if err := call.run(ctx); err != nil && !errors.Is(err, errStreamClosed) {
			program.Send(callFailedMsg{err: err})
			return
		}
		program.Send(callEndedMsg{})
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(stderr, "mockcall: %v\n", err)
		return 1
	}
	hangUp()
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Args[1:], os.Stderr))
}
