package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/google/shlex"

	"avrhal-go/bus"
	"avrhal-go/chip"
	"avrhal-go/config"
	"avrhal-go/drivers/twi"
	"avrhal-go/drivers/usart"
	"avrhal-go/hw/sim"
	"avrhal-go/x/poll"
)

// The simulator answers synchronously, so a handful of checks is enough.
var simBudget = poll.Budget{Attempts: 8}

// session is one simulated board with its engines brought up.
type session struct {
	board   *config.Board
	machine *sim.Machine
	dev     *chip.Device
	ports   map[chip.USARTID]*usart.Port
	twi     *twi.Bus

	conn  *bus.Connection
	trace *bus.Subscription
}

func newSession(b *config.Board) (*session, error) {
	v, err := b.Variant()
	if err != nil {
		return nil, err
	}
	m := sim.New(v)
	dev, err := m.Open(b.CPUHz)
	if err != nil {
		return nil, err
	}
	s := &session{
		board:   b,
		machine: m,
		dev:     dev,
		ports:   make(map[chip.USARTID]*usart.Port),
		twi:     twi.New(dev),
		conn:    bus.NewBus(256).NewConnection("avrsim"),
	}
	s.twi.Budget = simBudget
	m.Publish(s.conn)

	for _, p := range b.USART {
		cfg, err := p.Config()
		if err != nil {
			return nil, err
		}
		port, err := s.port(p.Unit())
		if err != nil {
			return nil, err
		}
		if err := port.Configure(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", p.Unit(), err)
		}
		glog.V(1).Infof("%s configured: %s %d baud", p.Unit(), cfg.Mode, port.Config().BaudRate)
	}
	if b.TWI != nil {
		if err := s.twi.Configure(b.TWI.Config()); err != nil {
			return nil, fmt.Errorf("twi: %w", err)
		}
		glog.V(1).Infof("twi configured: %d Hz", s.twi.Frequency())
	}
	for _, sl := range b.Slaves {
		m.TWI().Attach(sl.Address, responder(sl))
		glog.V(1).Infof("slave %s at 0x%02X", sl.Type, sl.Address)
	}
	return s, nil
}

func responder(sl config.Slave) sim.Responder {
	if sl.Type == config.SlaveMemory {
		d := &sim.Memory{}
		copy(d.Regs[:], sl.Bytes())
		return d
	}
	s := &sim.ScriptSlave{Reply: sl.Bytes()}
	if sl.NackAfter != nil {
		s.NackData, s.NackAfter = true, *sl.NackAfter
	}
	return s
}

// port returns the engine for id, creating it on first use.
func (s *session) port(id chip.USARTID) (*usart.Port, error) {
	if p, ok := s.ports[id]; ok {
		return p, nil
	}
	p, err := usart.New(s.dev, id)
	if err != nil {
		return nil, err
	}
	p.Busy, p.TX, p.RX = simBudget, simBudget, simBudget
	s.ports[id] = p
	return p, nil
}

// setTrace turns event tracing on or off.
func (s *session) setTrace(on bool) {
	switch {
	case on && s.trace == nil:
		s.trace = s.conn.Subscribe(bus.T("sim", "#"))
	case !on && s.trace != nil:
		s.trace.Unsubscribe()
		s.trace = nil
	}
}

// drain prints the events queued since the last command.
func (s *session) drain(w io.Writer) {
	if s.trace == nil {
		return
	}
	for {
		select {
		case msg := <-s.trace.Channel():
			ev, ok := msg.Payload.(sim.Event)
			if !ok {
				continue
			}
			fmt.Fprintln(w, formatEvent(ev))
		default:
			return
		}
	}
}

func formatEvent(ev sim.Event) string {
	switch ev.Kind {
	case "addr", "write", "read":
		ack := "nack"
		if ev.Ack {
			ack = "ack"
		}
		return fmt.Sprintf("  %s %s %02X %s", ev.Device, ev.Kind, ev.Value, ack)
	case "tx", "rx":
		return fmt.Sprintf("  %s %s %03X", ev.Device, ev.Kind, ev.Value)
	}
	return fmt.Sprintf("  %s %s", ev.Device, ev.Kind)
}

var errUnknownCommand = errors.New("unknown command")

// exec runs one tokenised command line.
func (s *session) exec(w io.Writer, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, ok := lookup(args[0])
	if !ok {
		return fmt.Errorf("%w %q", errUnknownCommand, args[0])
	}
	defer s.drain(w)
	glog.V(2).Infof("exec %q", args)
	return cmd.run(s, w, args[1:])
}

// eval runs a script of semicolon-separated commands, stopping at the
// first error.
func (s *session) eval(w io.Writer, script string) error {
	for _, line := range strings.Split(script, ";") {
		args, err := shlex.Split(line)
		if err != nil {
			return fmt.Errorf("%q: %w", line, err)
		}
		if err := s.exec(w, args); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
	}
	return nil
}

// units lists the configured ports in id order.
func (s *session) units() []chip.USARTID {
	ids := make([]chip.USARTID, 0, len(s.ports))
	for id := range s.ports {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
