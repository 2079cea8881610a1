package loopback

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/ppogatt/pkg/driver"
	fx "github.com/robotalks/ppogatt/pkg/framework"
	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

// EchoPeer is an in-process PPoGATT endpoint echoing every payload back.
// It stands in for the firmware side of a link.
type EchoPeer struct {
	Transport *ppogatt.Transport

	link *driver.Link
	echo *ppogatt.Echo
}

// NewEchoPeer creates an EchoPeer on rw.
func NewEchoPeer(rw driver.PacketReadWriter) *EchoPeer {
	link := driver.NewLink(rw)
	t := ppogatt.NewTransport(link)
	return &EchoPeer{
		Transport: t,
		link:      link,
		echo:      ppogatt.NewEcho(t, 0),
	}
}

// Run implements Runnable.
func (p *EchoPeer) Run(ctx context.Context) error {
	p.Transport.Init()
	defer p.Transport.Close()
	err := fx.NewRunnerWith(ctx).Go(
		fx.NamedRun("echo-link", p.link),
		fx.NamedRun("echo", p.echo),
	).Wait()
	glog.V(1).Infof("loopback: echo peer stopped: %v", err)
	return err
}
