//go:build !avr

package delay

import "time"

func (s Spin) DelayUs(us uint32) { time.Sleep(time.Duration(us) * time.Microsecond) }
