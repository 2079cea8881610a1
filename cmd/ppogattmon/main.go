package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/ppogatt/pkg/cli/render"
	"github.com/robotalks/ppogatt/pkg/driver/mqtt"
	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

var (
	mqttURL = "mqtt://localhost:1883/ppogatt/"
	brief   bool
)

func init() {
	if val := os.Getenv("PPOGATT_STATS_MQTT"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&brief, "brief", brief, "Print one line per stats report.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	mqtt.WatchState(q, func(id, state string) {
		if state == "" {
			log.Printf("%s: gone", id)
			return
		}
		log.Printf("%s: %s", id, state)
	})
	mqtt.WatchStats(q, func(id string, stats ppogatt.StatsSnapshot) {
		if brief {
			log.Printf("%s: %s session=%d tx=%d rtx=%d rx=%d dup=%d",
				id, stats.State, stats.Session, stats.TxData, stats.TxRetransmit,
				stats.RxDelivered, stats.RxDuplicate)
			return
		}
		log.Printf("%s:\n%s", id, render.Stats(id, stats))
	})
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
