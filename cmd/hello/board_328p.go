//go:build avr && !atmega2560

package main

import "avrhal-go/chip"

const variant = chip.ATmega328P
