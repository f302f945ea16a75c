package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"avrhal-go/chip"
	"avrhal-go/drivers/twi"
	"avrhal-go/drivers/usart"
	"avrhal-go/x/conv"
)

type command struct {
	name string
	help string
	run  func(s *session, w io.Writer, args []string) error
}

var errArgs = errors.New("wrong arguments")

var commands = []command{
	{"usart.init", "ID BAUD [MODE] [BITS] [PARITY] [STOP]", usartInit},
	{"usart.write", "ID TEXT...", usartWrite},
	{"usart.int", "ID N", usartInt},
	{"usart.float", "ID X PREC", usartFloat},
	{"usart.inject", "ID BYTE...", usartInject},
	{"usart.read", "ID", usartRead},
	{"usart.close", "ID", usartClose},
	{"twi.init", "[HZ]", twiInit},
	{"twi.write", "ADDR BYTE...", twiWrite},
	{"twi.read", "ADDR N [REG]", twiRead},
	{"twi.scan", "", twiScan},
	{"twi.prescale", "HZ", twiPrescale},
	{"baud", "MODE BAUD", baudTable},
	{"status", "", status},
	{"trace", "on|off", trace},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func parseUint(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 0, bits)
}

func parseBytes(args []string) ([]byte, error) {
	out := make([]byte, len(args))
	for i, a := range args {
		v, err := parseUint(a, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

func hexBytes(p []byte) string {
	var sb strings.Builder
	var buf [2]byte
	for i, b := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.Write(conv.U8Hex(buf[:], b))
	}
	return sb.String()
}

func (s *session) portArg(args []string, n int) (*usart.Port, error) {
	if len(args) < n {
		return nil, errArgs
	}
	id, err := parseUint(args[0], 8)
	if err != nil {
		return nil, err
	}
	return s.port(chip.USARTID(id))
}

// sent prints and forgets what the model transmitted.
func (s *session) sent(w io.Writer, id chip.USARTID) {
	m := s.machine.USART(id)
	fmt.Fprintf(w, "%s tx %q\n", id, m.TransmittedBytes())
	m.Reset()
}

func usartInit(s *session, w io.Writer, args []string) error {
	p, err := s.portArg(args, 2)
	if err != nil {
		return err
	}
	baud, err := parseUint(args[1], 32)
	if err != nil {
		return err
	}
	cfg := usart.Config{BaudRate: uint32(baud)}
	if len(args) > 2 {
		m, ok := usart.ParseMode(args[2])
		if !ok {
			return fmt.Errorf("unknown mode %q", args[2])
		}
		cfg.Mode = m
	}
	if len(args) > 3 {
		bits, err := parseUint(args[3], 8)
		if err != nil {
			return err
		}
		cfg.DataBits = uint8(bits)
	}
	if len(args) > 4 {
		par, ok := usart.ParseParity(args[4])
		if !ok {
			return fmt.Errorf("unknown parity %q", args[4])
		}
		cfg.Parity = par
	}
	if len(args) > 5 {
		stop, err := parseUint(args[5], 8)
		if err != nil {
			return err
		}
		cfg.StopBits = uint8(stop)
	}
	if err := p.Configure(cfg); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s UBRR=%d\n", p.ID(), s.machine.USART(p.ID()).Divisor())
	return nil
}

func usartWrite(s *session, w io.Writer, args []string) error {
	p, err := s.portArg(args, 2)
	if err != nil {
		return err
	}
	if _, err := p.WriteString(strings.Join(args[1:], " ")); err != nil {
		return err
	}
	if err := p.Flush(); err != nil {
		return err
	}
	s.sent(w, p.ID())
	return nil
}

func usartInt(s *session, w io.Writer, args []string) error {
	p, err := s.portArg(args, 2)
	if err != nil {
		return err
	}
	n, err := strconv.ParseInt(args[1], 0, 64)
	if err != nil {
		return err
	}
	if err := p.WriteInt(n); err != nil {
		return err
	}
	s.sent(w, p.ID())
	return nil
}

func usartFloat(s *session, w io.Writer, args []string) error {
	p, err := s.portArg(args, 3)
	if err != nil {
		return err
	}
	x, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return err
	}
	prec, err := strconv.Atoi(args[2])
	if err != nil {
		return err
	}
	if err := p.WriteFloat(x, prec); err != nil {
		return err
	}
	s.sent(w, p.ID())
	return nil
}

func usartInject(s *session, w io.Writer, args []string) error {
	p, err := s.portArg(args, 2)
	if err != nil {
		return err
	}
	data, err := parseBytes(args[1:])
	if err != nil {
		return err
	}
	m := s.machine.USART(p.ID())
	m.InjectBytes(data)
	fmt.Fprintf(w, "%s %d pending\n", p.ID(), m.Pending())
	return nil
}

func usartRead(s *session, w io.Writer, args []string) error {
	p, err := s.portArg(args, 1)
	if err != nil {
		return err
	}
	var got []byte
	for p.Buffered() {
		b, err := p.ReadByte()
		if err != nil {
			fmt.Fprintf(w, "%s rx %s\n", p.ID(), hexBytes(got))
			return err
		}
		got = append(got, b)
	}
	fmt.Fprintf(w, "%s rx %s %q\n", p.ID(), hexBytes(got), got)
	return nil
}

func usartClose(s *session, w io.Writer, args []string) error {
	p, err := s.portArg(args, 1)
	if err != nil {
		return err
	}
	return p.Close()
}

func twiInit(s *session, w io.Writer, args []string) error {
	var cfg twi.Config
	if len(args) > 0 {
		hz, err := parseUint(args[0], 32)
		if err != nil {
			return err
		}
		cfg.Frequency = uint32(hz)
	}
	if err := s.twi.Configure(cfg); err != nil {
		return err
	}
	pre := s.twi.Prescaler()
	fmt.Fprintf(w, "twi %d Hz (TWPS=%d TWBR=%d)\n", s.twi.Frequency(), pre.Bits, pre.TWBR)
	return nil
}

func addrArg(args []string, n int) (uint8, error) {
	if len(args) < n {
		return 0, errArgs
	}
	a, err := parseUint(args[0], 7)
	return uint8(a), err
}

func twiWrite(s *session, w io.Writer, args []string) error {
	addr, err := addrArg(args, 2)
	if err != nil {
		return err
	}
	data, err := parseBytes(args[1:])
	if err != nil {
		return err
	}
	n, err := s.twi.WriteToSlave(addr, data)
	fmt.Fprintf(w, "twi wrote %d/%d\n", n, len(data))
	return err
}

func twiRead(s *session, w io.Writer, args []string) error {
	addr, err := addrArg(args, 2)
	if err != nil {
		return err
	}
	n, err := parseUint(args[1], 8)
	if err != nil {
		return err
	}
	buf := make([]byte, n)
	if len(args) > 2 {
		reg, err := parseUint(args[2], 8)
		if err != nil {
			return err
		}
		err = s.twi.ReadRegister(addr, uint8(reg), buf)
		if err != nil {
			return err
		}
	} else {
		got, err := s.twi.ReadFromSlave(addr, buf)
		buf = buf[:got]
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "twi read %s\n", hexBytes(buf))
	return nil
}

func twiScan(s *session, w io.Writer, args []string) error {
	found := s.twi.Scan()
	if len(found) == 0 {
		fmt.Fprintln(w, "no devices")
		return nil
	}
	fmt.Fprintf(w, "found %s\n", hexBytes(found))
	return nil
}

func twiPrescale(s *session, w io.Writer, args []string) error {
	if len(args) < 1 {
		return errArgs
	}
	hz, err := parseUint(args[0], 32)
	if err != nil {
		return err
	}
	cpu := s.dev.CPUHz()
	pre, err := twi.Prescale(cpu, uint32(hz))
	if err != nil {
		fmt.Fprintf(w, "range %d..%d Hz\n", twi.MinFrequency(cpu), twi.MaxFrequency(cpu))
		return err
	}
	fmt.Fprintf(w, "TWPS=%d (/%d) TWBR=%d -> %d Hz\n", pre.Bits, pre.Divisor, pre.TWBR, pre.Frequency(cpu))
	return nil
}

func baudTable(s *session, w io.Writer, args []string) error {
	if len(args) < 2 {
		return errArgs
	}
	m, ok := usart.ParseMode(args[0])
	if !ok {
		return fmt.Errorf("unknown mode %q", args[0])
	}
	baud, err := parseUint(args[1], 32)
	if err != nil {
		return err
	}
	cpu := s.dev.CPUHz()
	ubrr, err := usart.Divisor(m, cpu, uint32(baud))
	if err != nil {
		return err
	}
	e, _ := usart.BaudError(m, cpu, uint32(baud))
	fmt.Fprintf(w, "UBRR=%d actual=%d error=%+.1f%%\n", ubrr, usart.BaudFor(m, cpu, ubrr), float64(e)/10)
	return nil
}

func status(s *session, w io.Writer, args []string) error {
	fmt.Fprintf(w, "%s @ %d Hz\n", s.dev.Variant(), s.dev.CPUHz())
	for _, id := range s.units() {
		p := s.ports[id]
		cfg := p.Config()
		fmt.Fprintf(w, "%s %s %s %d baud %d%s%d\n", id, p.State(), cfg.Mode, cfg.BaudRate,
			cfg.DataBits, strings.ToUpper(cfg.Parity.String()[:1]), cfg.StopBits)
	}
	fmt.Fprintf(w, "twi %d Hz status 0x%02X\n", s.twi.Frequency(), s.twi.Status())
	return nil
}

func trace(s *session, w io.Writer, args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return errArgs
	}
	s.setTrace(args[0] == "on")
	return nil
}
