package config

// Built-in boards. Key: name accepted by Load. Val: board JSON.

const boardUno = `{
  "chip": "atmega328p",
  "cpu_hz": 16000000,
  "usart": [
    {"id": 0, "baud": 9600}
  ],
  "twi": {"frequency": 100000},
  "slaves": [
    {"address": 56, "type": "script", "reply": [28, 128, 0, 6, 0, 0, 0]}
  ]
}`

const boardMega = `{
  "chip": "atmega2560",
  "cpu_hz": 16000000,
  "usart": [
    {"id": 0, "baud": 115200, "mode": "async2x"},
    {"id": 1, "baud": 9600, "parity": "even", "stop_bits": 2}
  ],
  "twi": {"frequency": 400000},
  "slaves": [
    {"address": 80, "type": "memory", "regs": [222, 173, 190, 239]}
  ]
}`

var builtin = map[string][]byte{
	"uno":  []byte(boardUno),
	"mega": []byte(boardMega),
}
