// Package bus is a small in-process publish/subscribe hub. Topics are token
// paths; subscriptions may use "+" for exactly one token and a trailing "#"
// for any remainder. Retained messages are replayed to new subscribers.
//
// The simulator publishes register-level events here and host tools
// subscribe to them, so the engines themselves stay free of logging.
package bus

import (
	"reflect"
	"sync"
)

const (
	wildOne  = "+"
	wildRest = "#"
)

// Topic is a sequence of comparable tokens (strings or ints in practice).
type Topic []any

// T builds a topic and panics on a non-comparable token.
func T(tokens ...any) Topic {
	for _, tok := range tokens {
		if tok == nil || !reflect.TypeOf(tok).Comparable() {
			panic("bus: topic token is not comparable")
		}
	}
	return Topic(tokens)
}

// Message is one published payload.
type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

// Subscription receives messages whose topic matches its filter.
type Subscription struct {
	filter Topic
	ch     chan *Message
	conn   *Connection
}

func (s *Subscription) Topic() Topic             { return s.filter }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// Bus routes messages between connections.
type Bus struct {
	mu       sync.RWMutex
	subs     []*Subscription
	retained []*Message
	qLen     int
}

// NewBus creates a new bus with the given subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{qLen: queueLen}
}

// NewMessage is a convenience constructor.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish delivers msg to every matching subscriber. Full queues drop their
// oldest entry. A retained message with a nil payload clears the retained
// value for its topic.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Retained {
		b.retain(msg)
	}
	for _, sub := range b.subs {
		if !Match(sub.filter, msg.Topic) {
			continue
		}
		deliver(sub.ch, msg)
	}
}

func (b *Bus) retain(msg *Message) {
	for i, r := range b.retained {
		if equal(r.Topic, msg.Topic) {
			if msg.Payload == nil {
				b.retained = append(b.retained[:i], b.retained[i+1:]...)
			} else {
				b.retained[i] = msg
			}
			return
		}
	}
	if msg.Payload != nil {
		b.retained = append(b.retained, msg)
	}
}

func deliver(ch chan *Message, msg *Message) {
	select {
	case ch <- msg:
	default:
		// drop oldest if queue full
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- msg:
		default:
		}
	}
}

func (b *Bus) add(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
	for _, r := range b.retained {
		if Match(sub.filter, r.Topic) {
			deliver(sub.ch, r)
		}
	}
}

func (b *Bus) remove(sub *Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Match reports whether topic satisfies filter.
func Match(filter, topic Topic) bool {
	for i, f := range filter {
		if f == wildRest {
			return true
		}
		if i >= len(topic) {
			return false
		}
		if f == wildOne {
			continue
		}
		if f != topic[i] {
			return false
		}
	}
	return len(filter) == len(topic)
}

func equal(a, b Topic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

// Connection groups the subscriptions of one client.
type Connection struct {
	bus  *Bus
	id   string
	mu   sync.Mutex
	subs []*Subscription
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(filter Topic) *Subscription {
	sub := &Subscription{
		filter: filter,
		ch:     make(chan *Message, c.bus.qLen),
		conn:   c,
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	c.bus.add(sub)
	return sub
}

// Unsubscribe removes a subscription owned by this connection and closes
// its channel.
func (c *Connection) Unsubscribe(sub *Subscription) {
	if !c.bus.remove(sub) {
		return
	}
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		if c.bus.remove(sub) {
			close(sub.ch)
		}
	}
}
