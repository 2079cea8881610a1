package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

type published struct {
	topic   string
	payload []byte
	retain  bool
}

type fakePublisher struct {
	lock     sync.Mutex
	messages []published
}

func (p *fakePublisher) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	p.lock.Lock()
	p.messages = append(p.messages, published{topic: topic, payload: payload, retain: retain})
	p.lock.Unlock()
	return &paho.DummyToken{}
}

func (p *fakePublisher) count() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.messages)
}

func (p *fakePublisher) at(n int) published {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.messages[n]
}

type fixedStats ppogatt.StatsSnapshot

func (s fixedStats) Stats() ppogatt.StatsSnapshot {
	return ppogatt.StatsSnapshot(s)
}

func TestStatsPublisher(t *testing.T) {
	pub := &fakePublisher{}
	mock := clock.NewMock()
	p := &StatsPublisher{
		Publisher: pub,
		ID:        "dev1",
		Source:    fixedStats{State: ppogatt.LinkEstablished, TxData: 7},
		Interval:  time.Second,
		Clock:     mock,
	}
	p.StateChanged(context.Background(), ppogatt.LinkEstablished)
	require.Equal(t, published{topic: "dev1/state", payload: []byte("established"), retain: true}, pub.at(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		return pub.count() > 1
	}, time.Second, time.Millisecond)
	msg := pub.at(1)
	require.Equal(t, "dev1/stats", msg.topic)
	require.False(t, msg.retain)
	stats, err := ppogatt.DecodeStats(msg.payload)
	require.NoError(t, err)
	require.Equal(t, uint64(7), stats.TxData)
	require.Equal(t, ppogatt.LinkEstablished, stats.State)

	cancel()
	require.Equal(t, context.Canceled, <-done)
	last := pub.at(pub.count() - 1)
	require.Equal(t, "dev1/state", last.topic)
	require.Empty(t, last.payload)
	require.True(t, last.retain)
}

func TestWatch(t *testing.T) {
	q := newTestQueue(t, "ppogatt/")
	statsCh := make(chan ppogatt.StatsSnapshot, 1)
	states := make(map[string]string)
	WatchStats(q, func(id string, stats ppogatt.StatsSnapshot) {
		require.Equal(t, "dev1", id)
		statsCh <- stats
	})
	WatchState(q, func(id, state string) {
		states[id] = state
	})

	data, err := ppogatt.EncodeStats(ppogatt.StatsSnapshot{RxDelivered: 3})
	require.NoError(t, err)
	q.dispatch(nil, &fakeMessage{topic: "ppogatt/dev1/stats", payload: data})
	require.Equal(t, uint64(3), (<-statsCh).RxDelivered)

	q.dispatch(nil, &fakeMessage{topic: "ppogatt/dev1/stats", payload: []byte{0xff}})
	require.Empty(t, statsCh)

	q.dispatch(nil, &fakeMessage{topic: "ppogatt/dev2/state", payload: []byte("established")})
	require.Equal(t, map[string]string{"dev2": "established"}, states)
}
