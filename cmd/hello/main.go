//go:build avr

// Command hello is the example firmware. It greets on USART0, sends the
// AHT20 calibration command over TWI and then reports temperature and
// humidity once a second.
//
//	tinygo flash -target=arduino ./cmd/hello
//	tinygo flash -target=arduino-mega2560 ./cmd/hello
package main

import (
	"avrhal-go/chip"
	"avrhal-go/drivers/aht20"
	"avrhal-go/drivers/sysctl"
	"avrhal-go/drivers/twi"
	"avrhal-go/drivers/usart"
	"avrhal-go/x/delay"
)

const cpuHz = 16_000_000

func main() {
	dev, err := chip.Open(chip.Config{Variant: variant, CPUHz: cpuHz}, chip.Hardware())
	if err != nil {
		halt()
	}
	sysctl.New(dev).DisableWatchdog()

	con, err := usart.New(dev, chip.USART0)
	if err != nil {
		halt()
	}
	if err := con.Configure(usart.Config{BaudRate: 9600}); err != nil {
		halt()
	}
	_ = con.Println("Hello World!")

	bus := twi.New(dev)
	if err := bus.Configure(twi.Config{Frequency: twi.DefaultFrequency}); err != nil {
		report(con, "twi", err)
		halt()
	}
	if _, err := bus.WriteToSlave(aht20.Address, []byte{0xE1, 0x08, 0x00}); err != nil {
		report(con, "aht20", err)
	}

	sensor := aht20.New(bus)
	wait := delay.Spin{CPUHz: cpuHz}
	_ = sensor.Configure(aht20.Config{Delay: wait})
	for {
		s, err := sensor.Read()
		if err != nil {
			report(con, "read", err)
		} else {
			deci(con, s.DeciCelsius())
			_, _ = con.WriteString(" C ")
			deci(con, s.DeciRelHumidity())
			_ = con.Println(" %RH")
		}
		wait.DelayMs(1000)
	}
}

// deci prints tenths as a fixed-point number.
func deci(con *usart.Port, v int32) {
	if v < 0 {
		_ = con.WriteByte('-')
		v = -v
	}
	_ = con.WriteInt(int64(v / 10))
	_ = con.WriteByte('.')
	_ = con.WriteByte(byte('0' + v%10))
}

func report(con *usart.Port, op string, err error) {
	_, _ = con.WriteString(op)
	_, _ = con.WriteString(": ")
	_ = con.Println(err.Error())
	_ = con.Flush()
}

func halt() {
	for {
	}
}
