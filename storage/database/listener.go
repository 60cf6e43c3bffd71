package database

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core"
)

// Notification channels; the score tables NOTIFY on every write (see migrations).
const (
	ChannelIndividualScores = "puntuacion_individual_diaria"
	ChannelGroupScores      = "puntuacion_grupal_diaria"
)

const (
	debounceDelay    = 300 * time.Millisecond
	minReconnectWait = 10 * time.Second
	maxReconnectWait = time.Minute
	pingInterval     = 90 * time.Second
)

// ChangeListener surfaces table change notifications (Postgres LISTEN/NOTIFY),
// debounced so a burst of writes coalesces into a single event per table.
type ChangeListener struct {
	pl       *pq.Listener
	logger   core.Logger
	channels []string
	in       chan string
	out      chan string
	done     chan struct{}
}

func NewChangeListener(conf *core.Config, logger core.Logger, channels ...string) (*ChangeListener, error) {
	pl := pq.NewListener(connString(conf.Database.Name, false, conf), minReconnectWait, maxReconnectWait,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Error(fmt.Sprintf("change listener event %d: %v", ev, err), err)
			}
		})

	for _, ch := range channels {
		if err := pl.Listen(ch); err != nil {
			_ = pl.Close()
			return nil, errors.Wrapf(err, "listening on %q", ch)
		}
	}

	l := &ChangeListener{
		pl:       pl,
		logger:   logger,
		channels: channels,
		in:       make(chan string),
		out:      make(chan string),
		done:     make(chan struct{}),
	}
	go l.receive()
	go debounce(l.in, l.out, debounceDelay)
	go l.keepAlive()
	return l, nil
}

// Notifications emits the name of each changed table, at most once per
// debounce window. The channel is closed on Close.
func (l *ChangeListener) Notifications() <-chan string {
	return l.out
}

func (l *ChangeListener) Close() error {
	close(l.done)
	return l.pl.Close()
}

func (l *ChangeListener) receive() {
	defer close(l.in)
	for n := range l.pl.Notify {
		if n == nil {
			// connection was re-established; changes may have been missed,
			// report all subscribed tables
			for _, ch := range l.channels {
				l.in <- ch
			}
			continue
		}
		l.in <- n.Channel
	}
}

func (l *ChangeListener) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := l.pl.Ping(); err != nil {
				l.logger.Warn(fmt.Sprintf("change listener ping: %v", err), err)
			}
		case <-l.done:
			return
		}
	}
}

// debounce coalesces bursts on `in`: events arriving within `delay` of the
// first one are batched and emitted once, deduplicated by name. Closing `in`
// flushes pending events and closes `out`.
func debounce(in <-chan string, out chan<- string, delay time.Duration) {
	var timerC <-chan time.Time
	pending := make(map[string]struct{})
	order := make([]string, 0, 2) // emit in arrival order

	flush := func() {
		for _, name := range order {
			out <- name
		}
		pending = make(map[string]struct{})
		order = order[:0]
	}

	for {
		select {
		case name, ok := <-in:
			if !ok {
				flush()
				close(out)
				return
			}
			if _, dup := pending[name]; !dup {
				pending[name] = struct{}{}
				order = append(order, name)
			}
			if timerC == nil {
				timerC = time.After(delay)
			}
		case <-timerC:
			flush()
			timerC = nil
		}
	}
}
