package link

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/ppogatt/pkg/cli/render"
	"github.com/robotalks/ppogatt/pkg/cli/sh"
	"github.com/robotalks/ppogatt/pkg/driver/serial"
)

var (
	// SendCmd sends the arguments as one text payload.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TEXT required"))
				return
			}
			sh.Submit(c, []byte(strings.Join(c.Args, " ")))
		}),
	}

	// SendHexCmd sends a hex encoded payload.
	SendHexCmd = ishell.Cmd{
		Name:    "sendhex",
		Aliases: []string{"sx"},
		Help:    "HEX",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("HEX required"))
				return
			}
			payload, err := hex.DecodeString(strings.Join(c.Args, ""))
			if err != nil {
				c.Err(fmt.Errorf("Invalid HEX: %v", err))
				return
			}
			sh.Submit(c, payload)
		}),
	}

	// ResetCmd re-initializes the session.
	ResetCmd = ishell.Cmd{
		Name:    "reset",
		Aliases: []string{"r"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.ShellFrom(c).Conn.Transport.Init()
		}),
	}

	// StateCmd prints the link state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			state := s.Conn.Transport.State()
			if s.OutputJSON {
				sh.PrintJSON(c, map[string]string{"state": state.String()})
				return
			}
			c.Println(state.String())
		}),
	}

	// StatsCmd prints the transport counters.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{"stat"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			stats := s.Conn.Transport.Stats()
			if s.OutputJSON {
				sh.PrintJSON(c, stats)
				return
			}
			c.Println(render.Stats(s.Conn.URL, stats))
		}),
	}

	// PortsCmd lists serial ports usable as serial:// links.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"p"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if sh.ShellFrom(c).OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				sh.PrintJSON(c, ports)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println("serial://" + port)
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&SendCmd,
		&SendHexCmd,
		&ResetCmd,
		&StateCmd,
		&StatsCmd,
		&PortsCmd,
	)
}
