// Package config describes a board for the host tools: the chip and its
// clock, the USART ports to bring up, the TWI bus and the slave devices
// the simulator attaches to it.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"

	"avrhal-go/chip"
	"avrhal-go/drivers/twi"
	"avrhal-go/drivers/usart"
	"avrhal-go/errcode"
)

// DefaultCPUHz is used when a board omits cpu_hz.
const DefaultCPUHz = 16_000_000

// Board is one board description.
type Board struct {
	Chip   string  `json:"chip"`
	CPUHz  uint32  `json:"cpu_hz,omitempty"`
	USART  []Port  `json:"usart,omitempty"`
	TWI    *Bus    `json:"twi,omitempty"`
	Slaves []Slave `json:"slaves,omitempty"`
}

// Port is a USART unit and its line settings. Empty fields take the
// usart package defaults.
type Port struct {
	ID       uint8  `json:"id"`
	Baud     uint32 `json:"baud,omitempty"`
	Mode     string `json:"mode,omitempty"`
	DataBits uint8  `json:"data_bits,omitempty"`
	Parity   string `json:"parity,omitempty"`
	StopBits uint8  `json:"stop_bits,omitempty"`
}

// Bus holds the TWI master settings.
type Bus struct {
	Frequency uint32 `json:"frequency,omitempty"`
	NoPullups bool   `json:"no_pullups,omitempty"`
}

// Slave kinds understood by the simulator.
const (
	SlaveScript = "script"
	SlaveMemory = "memory"
)

// Slave is a simulated device on the TWI bus.
type Slave struct {
	Address uint8  `json:"address"`
	Type    string `json:"type"`
	// Reply is served to reads by a script slave.
	Reply []uint16 `json:"reply,omitempty"`
	// NackAfter makes a script slave NACK the data byte after this many.
	NackAfter *int `json:"nack_after,omitempty"`
	// Regs preloads a memory slave from register 0.
	Regs []uint16 `json:"regs,omitempty"`
}

// Lookup resolves built-in board names.
var Lookup = func(name string) ([]byte, bool) {
	b, ok := builtin[name]
	return b, ok
}

// Load reads a board by built-in name or from a JSON file.
func Load(name string) (*Board, error) {
	if raw, ok := Lookup(name); ok {
		return Decode(raw)
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "config.load", Err: err}
	}
	return Decode(raw)
}

// Decode parses and validates a board. Unknown keys are rejected.
func Decode(raw []byte) (*Board, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var b Board
	if err := dec.Decode(&b); err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "config.decode", Err: err}
	}
	if b.CPUHz == 0 {
		b.CPUHz = DefaultCPUHz
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func invalid(msg string) error { return errcode.Wrap(errcode.InvalidParams, "config", msg) }

// Validate checks names, unit ids and byte values against the chip.
func (b *Board) Validate() error {
	v, err := b.Variant()
	if err != nil {
		return err
	}
	if b.CPUHz == 0 {
		return invalid("cpu_hz must be positive")
	}
	seen := map[uint8]bool{}
	for _, p := range b.USART {
		if int(p.ID) >= len(v.USARTs()) {
			return invalid("usart" + strconv.Itoa(int(p.ID)) + " not present on " + v.String())
		}
		if seen[p.ID] {
			return invalid("usart" + strconv.Itoa(int(p.ID)) + " listed twice")
		}
		seen[p.ID] = true
		if _, err := p.Config(); err != nil {
			return err
		}
	}
	addrs := map[uint8]bool{}
	for _, s := range b.Slaves {
		if s.Address > 0x7F {
			return invalid("slave address " + strconv.Itoa(int(s.Address)) + " exceeds 7 bits")
		}
		if addrs[s.Address] {
			return invalid("two slaves at " + strconv.Itoa(int(s.Address)))
		}
		addrs[s.Address] = true
		switch s.Type {
		case SlaveScript:
			if _, err := bytesOf(s.Reply); err != nil {
				return err
			}
		case SlaveMemory:
			if len(s.Regs) > 256 {
				return invalid("memory slave has 256 registers")
			}
			if _, err := bytesOf(s.Regs); err != nil {
				return err
			}
		default:
			return invalid("unknown slave type " + strconv.Quote(s.Type))
		}
	}
	return nil
}

// Variant resolves the chip name.
func (b *Board) Variant() (chip.Variant, error) { return chip.ParseVariant(b.Chip) }

// Config returns the usart settings for p.
func (p Port) Config() (usart.Config, error) {
	cfg := usart.Config{BaudRate: p.Baud, DataBits: p.DataBits, StopBits: p.StopBits}
	if p.Mode != "" {
		m, ok := usart.ParseMode(p.Mode)
		if !ok {
			return cfg, invalid("unknown usart mode " + strconv.Quote(p.Mode))
		}
		cfg.Mode = m
	}
	if p.Parity != "" {
		par, ok := usart.ParseParity(p.Parity)
		if !ok {
			return cfg, invalid("unknown parity " + strconv.Quote(p.Parity))
		}
		cfg.Parity = par
	}
	return cfg, nil
}

// Unit is the chip identity of p.
func (p Port) Unit() chip.USARTID { return chip.USARTID(p.ID) }

// Config returns the TWI settings for b.
func (b *Bus) Config() twi.Config {
	if b == nil {
		return twi.Config{}
	}
	return twi.Config{Frequency: b.Frequency, NoPullups: b.NoPullups}
}

// Bytes returns the reply or register preload as bytes.
func (s Slave) Bytes() []byte {
	src := s.Reply
	if s.Type == SlaveMemory {
		src = s.Regs
	}
	out, _ := bytesOf(src)
	return out
}

func bytesOf(vs []uint16) ([]byte, error) {
	out := make([]byte, len(vs))
	for i, v := range vs {
		if v > 0xFF {
			return nil, invalid("byte value " + strconv.Itoa(int(v)) + " out of range")
		}
		out[i] = byte(v)
	}
	return out, nil
}
