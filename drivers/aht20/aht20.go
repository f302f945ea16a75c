// Package aht20 drives the AHT10/AHT20 temperature and humidity sensors
// over any drivers.I2C, including the TWI engine in drivers/twi.
//
//	d := aht20.New(bus)
//	err := d.Configure(aht20.Config{})
//	d.Trigger()              // start a measurement (fast)
//	err = d.Collect(&s)      // fetch when ready; ErrNotReady while busy
//
// Read performs trigger plus bounded polling until ready. Conversions are
// fixed-point and return tenths of units (deci-°C and deci-%RH).
package aht20

import (
	"errors"

	"tinygo.org/x/drivers"

	"avrhal-go/errcode"
	"avrhal-go/x/delay"
	"avrhal-go/x/poll"
)

// I2C address.
const Address = 0x38

// Commands and status bits.
const (
	cmdTrigger      = 0xAC
	cmdInitAHT20    = 0xBE
	cmdInitAHT10    = 0xE1
	cmdSoftReset    = 0xBA
	cmdStatus       = 0x71
	initCalibrate   = 0x08
	triggerMeasure  = 0x33
	statusBusy      = 0x80
	statusCalibrate = 0x08
)

var (
	ErrNotReady = errors.New("aht20: not ready")
	ErrTimeout  = &errcode.E{C: errcode.Timeout, Op: "aht20.read", Msg: "measurement not ready"}
)

// Variant selects the initialisation command.
type Variant uint8

const (
	AHT20 Variant = iota
	AHT10
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x38.
	Address uint16
	Variant Variant
	// Poll bounds Read's wait for a conversion. Default 25 checks 10 ms
	// apart, after an 80 ms conversion delay.
	Poll poll.Budget
	// Delay is used for the conversion and settle delays.
	Delay delay.Delayer
}

// Device is one sensor on an I2C bus.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg  Config
	buf  [7]byte
	last Sample
}

// New returns a device at the default address. It does not touch the bus.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address}
}

// Configure applies cfg and sends the calibration command unless the
// status byte already reports the sensor calibrated.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.Delay == nil {
		cfg.Delay = delay.None{}
	}
	if cfg.Poll.Attempts == 0 {
		cfg.Poll = poll.Budget{Attempts: 25, IntervalUs: 10_000}
	}
	if cfg.Poll.Delay == nil {
		cfg.Poll.Delay = cfg.Delay
	}
	d.Address = cfg.Address
	d.cfg = cfg

	if st, err := d.Status(); err == nil && st&statusCalibrate != 0 {
		return nil
	}
	cmd := []byte{cmdInitAHT20, initCalibrate, 0x00}
	if cfg.Variant == AHT10 {
		cmd[0] = cmdInitAHT10
	}
	if err := d.bus.Tx(d.Address, cmd, nil); err != nil {
		return err
	}
	d.cfg.Delay.DelayMs(10)
	return nil
}

// Reset issues a soft reset. Give the device ~20 ms before using it.
func (d *Device) Reset() error {
	return d.bus.Tx(d.Address, []byte{cmdSoftReset}, nil)
}

// Status reads the status byte.
func (d *Device) Status() (byte, error) {
	data := d.buf[:1]
	if err := d.bus.Tx(d.Address, []byte{cmdStatus}, data); err != nil {
		return 0, err
	}
	return data[0], nil
}

// Trigger starts a measurement without waiting.
func (d *Device) Trigger() error {
	return d.bus.Tx(d.Address, []byte{cmdTrigger, triggerMeasure, 0x00}, nil)
}

// Collect reads one measurement. It returns ErrNotReady while the sensor
// is busy or uncalibrated; bus errors are returned as-is.
func (d *Device) Collect(out *Sample) error {
	data := d.buf[:]
	if err := d.bus.Tx(d.Address, nil, data); err != nil {
		return err
	}
	if data[0]&statusCalibrate == 0 || data[0]&statusBusy != 0 {
		return ErrNotReady
	}
	d.last = Sample{
		RawHumidity: uint32(data[1])<<12 | uint32(data[2])<<4 | uint32(data[3])>>4,
		RawTemp:     uint32(data[3]&0x0F)<<16 | uint32(data[4])<<8 | uint32(data[5]),
	}
	if out != nil {
		*out = d.last
	}
	return nil
}

// Read triggers a measurement, waits the nominal conversion time and then
// polls Collect within the configured budget.
func (d *Device) Read() (Sample, error) {
	if d.cfg.Delay == nil {
		if err := d.Configure(Config{Address: d.Address}); err != nil {
			return Sample{}, err
		}
	}
	if err := d.Trigger(); err != nil {
		return Sample{}, err
	}
	d.cfg.Delay.DelayMs(80)

	var s Sample
	var err error
	ok := d.cfg.Poll.Wait(func() bool {
		err = d.Collect(&s)
		return err != ErrNotReady
	})
	if !ok {
		return Sample{}, ErrTimeout
	}
	return s, err
}

// Last returns the most recent sample Collect accepted.
func (d *Device) Last() Sample { return d.last }

// Sample holds raw 20-bit readings.
type Sample struct {
	RawHumidity uint32
	RawTemp     uint32
}

// DeciRelHumidity returns tenths of %RH.
func (s Sample) DeciRelHumidity() int32 {
	return int32(uint64(s.RawHumidity) * 1000 >> 20)
}

// DeciCelsius returns tenths of °C.
func (s Sample) DeciCelsius() int32 {
	return int32(uint64(s.RawTemp)*2000>>20) - 500
}

// Celsius returns °C. Prefer DeciCelsius on the MCU.
func (s Sample) Celsius() float32 {
	return float32(s.RawTemp)*200/0x100000 - 50
}

// RelHumidity returns %RH. Prefer DeciRelHumidity on the MCU.
func (s Sample) RelHumidity() float32 {
	return float32(s.RawHumidity) * 100 / 0x100000
}
