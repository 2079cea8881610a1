package mqtt

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

// Publisher publishes messages, implemented by Queue.
type Publisher interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// StatsSource provides transport counters, implemented by ppogatt.Transport.
type StatsSource interface {
	Stats() ppogatt.StatsSnapshot
}

// DefaultStatsInterval is the default publishing interval.
const DefaultStatsInterval = 5 * time.Second

// StatsPublisher publishes CBOR encoded stats of a transport to
// <id>/stats, and the link state, retained, to <id>/state.
type StatsPublisher struct {
	Publisher Publisher
	ID        string
	Source    StatsSource
	Interval  time.Duration
	Clock     clock.Clock

	queue *Queue
}

// NewStatsPublisher creates a StatsPublisher with its own broker connection.
// The broker clears the retained state if the publisher disappears.
func NewStatsPublisher(brokerURL, id string, src StatsSource) (*StatsPublisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+id+TopicState, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("ppogatt:" + id)
	}
	q := NewQueue(opts, topicPrefix)
	p := &StatsPublisher{
		Publisher: q,
		ID:        id,
		Source:    src,
		Interval:  DefaultStatsInterval,
		Clock:     clock.New(),
		queue:     q,
	}
	q.OnConnect = func(*Queue) { p.publishState(p.Source.Stats().State) }
	return p, nil
}

// StateChanged implements ppogatt.StateNotifier.
func (p *StatsPublisher) StateChanged(_ context.Context, state ppogatt.LinkState) {
	p.publishState(state)
}

// Run implements Runnable.
func (p *StatsPublisher) Run(ctx context.Context) error {
	if p.queue != nil {
		p.queue.Connect()
		defer p.queue.Close()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	ticker := clk.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			token := p.Publisher.PubWith(p.ID+TopicState, nil, 1, true)
			token.WaitTimeout(time.Second)
			return ctx.Err()
		case <-ticker.C:
			p.publishStats()
		}
	}
}

func (p *StatsPublisher) publishStats() {
	data, err := ppogatt.EncodeStats(p.Source.Stats())
	if err != nil {
		glog.Errorf("stats: encode: %v", err)
		return
	}
	p.Publisher.PubWith(p.ID+TopicStats, data, 0, false)
}

func (p *StatsPublisher) publishState(state ppogatt.LinkState) {
	p.Publisher.PubWith(p.ID+TopicState, []byte(state.String()), 1, true)
}

// WatchStats subscribes to stats of all links under the queue prefix.
func WatchStats(q *Queue, fn func(id string, stats ppogatt.StatsSnapshot)) *Subscription {
	return q.Sub("+"+TopicStats, func(topic string, payload []byte) {
		stats, err := ppogatt.DecodeStats(payload)
		if err != nil {
			glog.Warningf("stats: %s: %v", topic, err)
			return
		}
		fn(strings.TrimSuffix(topic, TopicStats), stats)
	})
}

// WatchState subscribes to link states of all links under the queue
// prefix. An empty state means the publisher is gone.
func WatchState(q *Queue, fn func(id, state string)) *Subscription {
	return q.Sub("+"+TopicState, func(topic string, payload []byte) {
		fn(strings.TrimSuffix(topic, TopicState), string(payload))
	})
}
