// Package serial carries PPoGATT frames over a serial port, e.g. a BLE
// dongle or the debug UART of a board bridging its GATT link.
package serial

import (
	"fmt"
	"net/url"
	"strconv"

	"go.bug.st/serial"

	"github.com/robotalks/ppogatt/pkg/driver/stream"
)

// DefaultBaudRate is used when the URL doesn't specify one.
const DefaultBaudRate = 115200

// ParseURL extracts the port name and mode from a URL like
// serial:///dev/ttyUSB0?baud=115200&parity=even.
func ParseURL(portURL string) (string, *serial.Mode, error) {
	u, err := url.Parse(portURL)
	if err != nil {
		return "", nil, err
	}
	name := u.Host + u.Path
	if name == "" {
		return "", nil, fmt.Errorf("serial port name missing in %q", portURL)
	}
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	query := u.Query()
	if val := query.Get("baud"); val != "" {
		if mode.BaudRate, err = strconv.Atoi(val); err != nil || mode.BaudRate <= 0 {
			return "", nil, fmt.Errorf("invalid baud rate %q", val)
		}
	}
	switch val := query.Get("parity"); val {
	case "", "none":
	case "even":
		mode.Parity = serial.EvenParity
	case "odd":
		mode.Parity = serial.OddParity
	default:
		return "", nil, fmt.Errorf("invalid parity %q", val)
	}
	return name, mode, nil
}

// Open opens the serial port specified by the URL and frames it with
// 4-byte length prefixes.
func Open(portURL string) (*stream.ReadWriter, error) {
	name, mode, err := ParseURL(portURL)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return stream.New(port), nil
}

// Ports lists the serial ports present.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
