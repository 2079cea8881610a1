package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/ppogatt/pkg/env"
	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is a running transport over an opened link.
type Conn struct {
	URL       string
	Transport *ppogatt.Transport
	Link      *env.Link
	Cancel    func()

	done chan error
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// PrintJSON prints v as JSON, reporting encoding errors on c.
func PrintJSON(c *ishell.Context, v interface{}) error {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(string(out))
	return nil
}

// Submit sends a payload on the current connection.
func Submit(c *ishell.Context, payload []byte) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Conn.Transport.Submit(ctx, payload); err != nil {
		c.Err(err)
		return err
	}
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the link at linkURL, or the configured one if empty, and
// starts a transport on it.
func (s *Shell) Connect(linkURL string) error {
	conf := *s.Config
	if linkURL != "" {
		conf.LinkURL = linkURL
	}
	t, link, err := conf.NewTransport()
	if err != nil {
		return err
	}
	t.Handler = ppogatt.HandlePayloadFunc(s.printPayload)
	t.Notifier = ppogatt.StateChangedFunc(func(_ context.Context, state ppogatt.LinkState) {
		if s.Interactive && !s.OutputJSON {
			s.Shell.Printf("* link %s\n", state)
		}
	})
	t.Failures = ppogatt.LinkFailedFunc(func(_ context.Context, err error) {
		s.Shell.Printf("* %v\n", err)
	})

	conn := &Conn{URL: conf.LinkURL, Transport: t, Link: link, done: make(chan error, 1)}
	var ctx context.Context
	ctx, conn.Cancel = context.WithCancel(context.Background())
	s.Disconnect()
	s.Conn = conn
	go func() {
		conn.done <- link.Run(ctx)
	}()
	t.Init()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", link.URL.Scheme))
	return nil
}

// Disconnect closes the current connection.
func (s *Shell) Disconnect() {
	conn := s.Conn
	if conn == nil {
		return
	}
	s.Conn = nil
	conn.Transport.Close()
	conn.Cancel()
	select {
	case <-conn.done:
	case <-time.After(time.Second):
		log.Printf("link %s did not stop", conn.URL)
	}
	s.Shell.SetPrompt(unconnectedPrompt)
}

func (s *Shell) printPayload(_ context.Context, payload []byte) {
	if s.OutputJSON {
		out, _ := json.Marshal(map[string][]byte{"payload": payload})
		s.Shell.Println(string(out))
		return
	}
	s.Shell.Printf("<< %q\n", payload)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.LinkURL)
		}
		if err := s.Connect(""); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.LinkURL, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd opens a link.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[LINK-URL]",
		Func: func(c *ishell.Context) {
			var linkURL string
			if len(c.Args) > 0 {
				linkURL = c.Args[0]
			}
			if err := ShellFrom(c).Connect(linkURL); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the current link.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.Default()).WithAutoConnect(true).Run(flag.Args()...)
}
