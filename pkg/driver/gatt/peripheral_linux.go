//go:build linux

package gatt

import (
	"io"
	"sync"

	"github.com/golang/glog"
	"github.com/paypal/gatt"
)

// Peripheral implements driver.PacketReadWriter as a BLE GATT peripheral.
// The central writes frames to the data characteristic without response
// and receives frames as notifications of the same characteristic.
type Peripheral struct {
	Name string
	Meta Meta
	// Connected is called when a central subscribes to the data
	// characteristic. The session must be re-initialized then.
	Connected    func()
	Disconnected func()

	device   gatt.Device
	packetCh chan []byte
	closeCh  chan struct{}
	once     sync.Once

	lock     sync.Mutex
	notifier gatt.Notifier
}

// Open opens the HCI device and starts advertising once powered on.
// devID -1 picks the first available adapter.
func Open(name string, devID int) (*Peripheral, error) {
	d, err := gatt.NewDevice(gatt.LnxMaxConnections(1), gatt.LnxDeviceID(devID, true))
	if err != nil {
		return nil, err
	}
	p := &Peripheral{
		Name:     name,
		Meta:     DefaultMeta(),
		device:   d,
		packetCh: make(chan []byte, 16),
		closeCh:  make(chan struct{}),
	}
	d.Handle(
		gatt.CentralConnected(func(c gatt.Central) {
			glog.Infof("gatt: central %s connected", c.ID())
		}),
		gatt.CentralDisconnected(func(c gatt.Central) {
			glog.Infof("gatt: central %s disconnected", c.ID())
			p.setNotifier(nil)
		}),
	)
	if err = d.Init(p.stateChanged); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Peripheral) service() *gatt.Service {
	s := gatt.NewService(gatt.MustParseUUID(ServiceUUID))
	data := s.AddCharacteristic(gatt.MustParseUUID(DataCharUUID))
	data.HandleWriteFunc(func(r gatt.Request, frame []byte) byte {
		select {
		case p.packetCh <- append([]byte(nil), frame...):
		default:
		}
		return gatt.StatusSuccess
	})
	data.HandleNotifyFunc(func(r gatt.Request, n gatt.Notifier) {
		p.lock.Lock()
		p.Meta = p.Meta.WithCapacity(n.Cap())
		p.lock.Unlock()
		glog.Infof("gatt: notification capacity %d bytes", n.Cap())
		p.setNotifier(n)
	})
	meta := s.AddCharacteristic(gatt.MustParseUUID(MetaCharUUID))
	meta.HandleReadFunc(func(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
		p.lock.Lock()
		m := p.Meta
		p.lock.Unlock()
		rsp.Write(m.Bytes())
	})
	return s
}

func (p *Peripheral) stateChanged(d gatt.Device, s gatt.State) {
	glog.Infof("gatt: adapter %s", s)
	if s != gatt.StatePoweredOn {
		d.StopAdvertising()
		return
	}
	svc := p.service()
	if err := d.AddService(svc); err != nil {
		glog.Errorf("gatt: add service: %v", err)
		return
	}
	if err := d.AdvertiseNameAndServices(p.Name, []gatt.UUID{svc.UUID()}); err != nil {
		glog.Errorf("gatt: advertise: %v", err)
	}
}

func (p *Peripheral) setNotifier(n gatt.Notifier) {
	p.lock.Lock()
	subscribed := p.notifier == nil && n != nil
	unsubscribed := p.notifier != nil && n == nil
	p.notifier = n
	p.lock.Unlock()
	if subscribed && p.Connected != nil {
		p.Connected()
	}
	if unsubscribed && p.Disconnected != nil {
		p.Disconnected()
	}
}

// ReadPacket implements PacketReader.
func (p *Peripheral) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.closeCh:
		return nil, io.EOF
	}
}

// MaxPayload returns the largest payload that fits in one notification
// of the subscribed central.
func (p *Peripheral) MaxPayload() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return int(p.Meta.MaxPayload)
}

// WritePacket implements PacketWriter. Without a subscribed central the
// frame is lost, like any notification the radio drops.
func (p *Peripheral) WritePacket(pkt []byte) error {
	p.lock.Lock()
	n := p.notifier
	p.lock.Unlock()
	if n == nil || n.Done() {
		glog.V(2).Info("gatt: no subscriber, frame dropped")
		return nil
	}
	return Notify(n, pkt)
}

// Close implements io.Closer.
func (p *Peripheral) Close() error {
	p.once.Do(func() {
		close(p.closeCh)
		p.device.StopAdvertising()
	})
	return nil
}
