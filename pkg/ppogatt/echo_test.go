package ppogatt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// expectUnordered expects frames sent by independent goroutines.
func (e *transportTestEnv) expectUnordered(frames ...Frame) func(string) {
	return func(name string) {
		var actual []string
		for range frames {
			select {
			case f := <-e.driver.frames:
				actual = append(actual, f.String())
			case <-time.After(testWaitTimeout):
				e.t.Fatalf("%s: timeout", name)
			}
		}
		expected := make([]string, 0, len(frames))
		for _, f := range frames {
			expected = append(expected, f.String())
		}
		require.ElementsMatchf(e.t, expected, actual, "%s frames mismatch", name)
	}
}

func TestEcho(t *testing.T) {
	env := newTransportTestEnv(t)
	echo := NewEcho(env.transport, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go echo.Run(ctx)
	env.run(
		env.establish(),
		env.inject(CmdData, 0, "ping"),
		env.expectUnordered(
			Frame{Cmd: CmdAck, Seq: 0},
			Frame{Cmd: CmdData, Seq: 0, Payload: []byte("ping")},
		),
		env.inject(CmdAck, 0, ""),
		env.inject(CmdData, 1, "pong"),
		env.expectUnordered(
			Frame{Cmd: CmdAck, Seq: 1},
			Frame{Cmd: CmdData, Seq: 1, Payload: []byte("pong")},
		),
	)
}
