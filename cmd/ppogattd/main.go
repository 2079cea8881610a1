package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/ppogatt/pkg/driver/mqtt"
	"github.com/robotalks/ppogatt/pkg/env"
	fx "github.com/robotalks/ppogatt/pkg/framework"
	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

var (
	echo      = true
	echoDepth = ppogatt.DefaultQueueDepth
)

func init() {
	env.SetupFlags()
	flag.BoolVar(&echo, "echo", echo, "Send received payloads back.")
	flag.IntVar(&echoDepth, "echo-depth", echoDepth, "Payloads queued for echoing.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.Default()
	t, link := conf.MustNewTransport()
	defer t.Close()

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("link", link))
	if echo {
		runner.Go(fx.NamedRun("echo", ppogatt.NewEcho(t, echoDepth)))
	} else {
		t.Handler = ppogatt.HandlePayloadFunc(func(_ context.Context, payload []byte) {
			glog.Infof("payload %q", payload)
		})
	}
	if conf.StatsMQTT != "" {
		pub, err := mqtt.NewStatsPublisher(conf.StatsMQTT, conf.ID, t)
		if err != nil {
			glog.Exitf("stats publisher: %v", err)
		}
		pub.Interval = conf.StatsInterval
		t.Notifier = pub
		runner.Go(fx.NamedRun("stats", pub))
	}
	t.Failures = ppogatt.LinkFailedFunc(func(_ context.Context, err error) {
		glog.Warningf("link failed: %v", err)
	})

	t.Init()
	if err := runner.Wait(); err != nil {
		glog.Errorf("exit: %v", err)
	}
}
