package aht20

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"avrhal-go/chip"
	"avrhal-go/drivers/twi"
	"avrhal-go/errcode"
	"avrhal-go/hw/sim"
	"avrhal-go/x/poll"
)

// fakeSensor answers like an AHT20: a status byte followed by five data
// bytes and a CRC. After a trigger it reports busy for two reads.
type fakeSensor struct {
	calibrated bool
	busyReads  int
	frame      [7]byte

	cmd  []byte
	cmds [][]byte
	pos  int
}

func (f *fakeSensor) Address(read bool) bool {
	if read {
		f.commit()
		f.pos = 0
	} else {
		f.cmd = nil
	}
	return true
}

func (f *fakeSensor) Write(b byte) bool {
	f.cmd = append(f.cmd, b)
	return true
}

func (f *fakeSensor) Read(bool) byte {
	if f.pos == 0 {
		f.pos++
		var st byte
		if f.calibrated {
			st |= statusCalibrate
		}
		if f.busyReads > 0 {
			st |= statusBusy
			f.busyReads--
		}
		return st
	}
	var b byte
	if f.pos < len(f.frame) {
		b = f.frame[f.pos]
	}
	f.pos++
	return b
}

func (f *fakeSensor) Stop() { f.commit() }

func (f *fakeSensor) commit() {
	if len(f.cmd) == 0 {
		return
	}
	f.cmds = append(f.cmds, f.cmd)
	switch f.cmd[0] {
	case cmdInitAHT20, cmdInitAHT10:
		f.calibrated = true
	case cmdTrigger:
		f.busyReads = 2
	}
	f.cmd = nil
}

func newSensor(t *testing.T) (*Device, *fakeSensor, *sim.Machine) {
	t.Helper()
	m := sim.New(chip.ATmega328P)
	dev, err := m.Open(16_000_000)
	require.NoError(t, err)
	b := twi.New(dev)
	b.Budget = poll.Budget{Attempts: 5}
	require.NoError(t, b.Configure(twi.Config{}))

	f := &fakeSensor{}
	m.TWI().Attach(Address, f)
	return New(b), f, m
}

func TestConfigureCalibrates(t *testing.T) {
	d, f, _ := newSensor(t)
	require.NoError(t, d.Configure(Config{}))
	require.True(t, f.calibrated)
	require.Equal(t, []byte{cmdInitAHT20, 0x08, 0x00}, f.cmds[len(f.cmds)-1])

	// Already calibrated: no second init command.
	n := len(f.cmds)
	require.NoError(t, d.Configure(Config{}))
	require.Equal(t, n+1, len(f.cmds), "only the status query")
}

func TestConfigureAHT10(t *testing.T) {
	d, f, _ := newSensor(t)
	require.NoError(t, d.Configure(Config{Variant: AHT10}))
	require.Equal(t, []byte{cmdInitAHT10, 0x08, 0x00}, f.cmds[len(f.cmds)-1])
}

func TestReadPollsUntilReady(t *testing.T) {
	d, f, _ := newSensor(t)
	require.NoError(t, d.Configure(Config{}))
	// 50 %RH, 25 °C.
	f.frame = [7]byte{0, 0x80, 0x00, 0x06, 0x00, 0x00, 0}

	s, err := d.Read()
	require.NoError(t, err)
	require.Equal(t, uint32(0x80000), s.RawHumidity)
	require.Equal(t, uint32(0x60000), s.RawTemp)
	require.Equal(t, int32(500), s.DeciRelHumidity())
	require.Equal(t, int32(250), s.DeciCelsius())
	require.InDelta(t, 25.0, float64(s.Celsius()), 0.01)
	require.InDelta(t, 50.0, float64(s.RelHumidity()), 0.01)
	require.Equal(t, s, d.Last())
}

func TestReadTimesOut(t *testing.T) {
	d, f, _ := newSensor(t)
	require.NoError(t, d.Configure(Config{Poll: poll.Budget{Attempts: 1}}))
	f.frame = [7]byte{}
	_, err := d.Read()
	require.True(t, errors.Is(err, ErrTimeout))
	require.Equal(t, errcode.Timeout, errcode.Of(err))
}

func TestMissingSensor(t *testing.T) {
	d, _, m := newSensor(t)
	m.TWI().Detach(Address)
	err := d.Configure(Config{})
	require.True(t, errors.Is(err, twi.ErrNack))
	_, err = d.Read()
	require.True(t, errors.Is(err, twi.ErrNack))
}
