// Package env sets up PPoGATT transports and links from flags and
// environment variables.
package env

import (
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

// Config provides common options to setup a PPoGATT endpoint.
type Config struct {
	// LinkURL selects the link driver, e.g.
	// tcp://host:port, tcp+listen://:port, serial:///dev/ttyUSB0?baud=115200,
	// ws://host:port/path, mqtt://host:port/prefix/?role=peripheral,
	// gatt://?dev=-1, loop://?loss=5
	LinkURL string
	// ID identifies the link on shared media (MQTT topics, GATT name).
	ID string

	// StatsMQTT is the broker URL to publish stats to, empty disables it.
	StatsMQTT     string
	StatsInterval time.Duration

	Window            int
	QueueDepth        int
	RetransmitTimeout time.Duration
	MaxRetransmits    int
	ReadyTimeout      time.Duration
	ResetTimeout      time.Duration
	MaxResetAttempts  int
}

var defaultConfig = Config{
	LinkURL:           "loop://",
	StatsInterval:     5 * time.Second,
	Window:            ppogatt.DefaultWindow,
	QueueDepth:        ppogatt.DefaultQueueDepth,
	RetransmitTimeout: ppogatt.DefaultRetransmitTimeout,
	MaxRetransmits:    ppogatt.DefaultMaxRetransmits,
	ReadyTimeout:      ppogatt.DefaultReadyTimeout,
	ResetTimeout:      ppogatt.DefaultResetTimeout,
	MaxResetAttempts:  ppogatt.DefaultMaxResetAttempts,
}

func init() {
	if val := os.Getenv("PPOGATT_LINK"); val != "" {
		defaultConfig.LinkURL = val
	}
	if val := os.Getenv("PPOGATT_ID"); val != "" {
		defaultConfig.ID = val
	} else {
		defaultConfig.ID = MachineID()
	}
	if val := os.Getenv("PPOGATT_STATS_MQTT"); val != "" {
		defaultConfig.StatsMQTT = val
	}
	if val, err := strconv.Atoi(os.Getenv("PPOGATT_WINDOW")); err == nil {
		defaultConfig.Window = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.LinkURL, "link", c.LinkURL, "Link URL.")
	flag.StringVar(&c.ID, "id", c.ID, "Link ID.")
	flag.StringVar(&c.StatsMQTT, "stats-mqtt", c.StatsMQTT, "MQTT broker URL to publish stats.")
	flag.DurationVar(&c.StatsInterval, "stats-interval", c.StatsInterval, "Stats publishing interval.")
	flag.IntVar(&c.Window, "window", c.Window, "Max unacknowledged DATA frames.")
	flag.IntVar(&c.QueueDepth, "queue-depth", c.QueueDepth, "Depth of send/receive queues.")
	flag.DurationVar(&c.RetransmitTimeout, "rto", c.RetransmitTimeout, "Retransmit timeout.")
	flag.IntVar(&c.MaxRetransmits, "max-retransmits", c.MaxRetransmits, "Retransmits before the session is reset.")
	flag.DurationVar(&c.ReadyTimeout, "ready-timeout", c.ReadyTimeout, "Max wait for a busy driver.")
	flag.DurationVar(&c.ResetTimeout, "reset-timeout", c.ResetTimeout, "RESET_REQ resend interval.")
	flag.IntVar(&c.MaxResetAttempts, "max-reset-attempts", c.MaxResetAttempts, "RESET_REQs before giving up.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Apply copies protocol tunables into a Transport.
func (c *Config) Apply(t *ppogatt.Transport) {
	t.Window = c.Window
	t.QueueDepth = c.QueueDepth
	t.RetransmitTimeout = c.RetransmitTimeout
	t.MaxRetransmits = c.MaxRetransmits
	t.ReadyTimeout = c.ReadyTimeout
	t.ResetTimeout = c.ResetTimeout
	t.MaxResetAttempts = c.MaxResetAttempts
}

// NewTransport opens the link and creates a Transport on it.
func (c *Config) NewTransport() (*ppogatt.Transport, *Link, error) {
	link, err := c.NewLink()
	if err != nil {
		return nil, nil, err
	}
	t := ppogatt.NewTransport(link.Driver)
	c.Apply(t)
	link.Attach(t)
	return t, link, nil
}

// MustNewTransport creates a Transport and fails on error.
func (c *Config) MustNewTransport() (*ppogatt.Transport, *Link) {
	t, link, err := c.NewTransport()
	if err != nil {
		log.Fatalln(err)
	}
	return t, link
}
