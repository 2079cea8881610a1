package env

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/ppogatt/pkg/driver"
	"github.com/robotalks/ppogatt/pkg/driver/gatt"
	"github.com/robotalks/ppogatt/pkg/driver/loopback"
	"github.com/robotalks/ppogatt/pkg/driver/mqtt"
	"github.com/robotalks/ppogatt/pkg/driver/serial"
	"github.com/robotalks/ppogatt/pkg/driver/stream"
	"github.com/robotalks/ppogatt/pkg/driver/websocket"
	fx "github.com/robotalks/ppogatt/pkg/framework"
	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

// Link is an opened link driver with the workers it needs.
type Link struct {
	URL    *url.URL
	Driver *driver.Link

	runnables []fx.Runnable
	onConnect func(func())
}

// Run implements Runnable.
func (l *Link) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx).Go(fx.NamedRun("link", l.Driver))
	for _, r := range l.runnables {
		runner.Go(r)
	}
	return runner.Wait()
}

// Attach re-initializes the transport whenever the underlying link
// reports a new connection.
func (l *Link) Attach(t *ppogatt.Transport) {
	if l.onConnect != nil {
		l.onConnect(t.Init)
	}
}

// NewLink opens the link driver selected by LinkURL. For tcp+listen it
// blocks until a peer connects.
func (c *Config) NewLink() (*Link, error) {
	u, err := url.Parse(c.LinkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	link := &Link{URL: u}
	var rw driver.PacketReadWriter
	switch u.Scheme {
	case "tcp":
		rw, err = stream.Dial(u.Host)
	case "tcp+listen":
		glog.Infof("env: waiting for peer on %s", u.Host)
		rw, err = stream.Accept(u.Host)
	case "serial":
		rw, err = serial.Open(c.LinkURL)
	case "ws", "wss":
		rw, err = websocket.Dial(c.LinkURL)
	case "mqtt", "mqtts":
		rw, err = c.openMQTT(u, link)
	case "gatt":
		rw, err = c.openGATT(u, link)
	case "loop":
		rw, err = openLoop(u, link)
	default:
		return nil, fmt.Errorf("unknown link URL scheme: %q", u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s link: %w", u.Scheme, err)
	}
	link.Driver = driver.NewLink(rw)
	return link, nil
}

// MustNewLink opens the link and fails on error.
func (c *Config) MustNewLink() *Link {
	link, err := c.NewLink()
	if err != nil {
		log.Fatalln(err)
	}
	return link
}

// openMQTT bridges the link through a broker. The role query parameter
// selects the side, central by default.
func (c *Config) openMQTT(u *url.URL, link *Link) (driver.PacketReadWriter, error) {
	query := u.Query()
	id := query.Get("id")
	if id == "" {
		id = c.ID
	}
	role := query.Get("role")
	query.Del("id")
	query.Del("role")
	brokerURL := *u
	brokerURL.RawQuery = query.Encode()

	q, err := mqtt.NewQueueFromURL(brokerURL.String())
	if err != nil {
		return nil, err
	}
	rw := mqtt.NewPacketReadWriter(q)
	switch role {
	case "", "central":
		rw.ForCentral(id)
	case "peripheral":
		rw.ForPeripheral(id)
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	rw.Subscribe()
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	link.runnables = append(link.runnables, fx.NamedRun("mqtt", fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return q.Close()
	})))
	return rw, nil
}

func (c *Config) openGATT(u *url.URL, link *Link) (driver.PacketReadWriter, error) {
	devID := -1
	if val := u.Query().Get("dev"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid dev %q", val)
		}
		devID = n
	}
	name := u.Query().Get("name")
	if name == "" {
		name = "ppogatt-" + c.ID
	}
	p, err := gatt.Open(name, devID)
	if err != nil {
		return nil, err
	}
	link.onConnect = func(fn func()) { p.Connected = fn }
	return p, nil
}

// openLoop creates an in-process echo peer, with every nth frame lost in
// both directions when loss=n is given.
func openLoop(u *url.URL, link *Link) (driver.PacketReadWriter, error) {
	local, remote := loopback.Pipe(0)
	if val := u.Query().Get("loss"); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n < 2 {
			return nil, fmt.Errorf("invalid loss %q", val)
		}
		local.SetDrop(loopback.DropEvery(n))
		remote.SetDrop(loopback.DropEvery(n))
	}
	link.runnables = append(link.runnables, fx.NamedRun("echo-peer", loopback.NewEchoPeer(remote)))
	return local, nil
}
