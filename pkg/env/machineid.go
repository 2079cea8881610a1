package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves an ID identifying this machine for PPoGATT links.
// The raw machine ID is hashed so it isn't exposed on shared brokers.
func MachineID() string {
	id, err := machineid.ProtectedID("ppogatt")
	if err == nil {
		return id[:16]
	}
	glog.V(1).Infof("env: machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "ppogatt"
}
