package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"avrhal-go/chip"
	"avrhal-go/drivers/usart"
	"avrhal-go/errcode"
)

func TestBuiltinBoards(t *testing.T) {
	for name := range builtin {
		b, err := Load(name)
		require.NoError(t, err, name)
		_, err = b.Variant()
		require.NoError(t, err, name)
	}

	mega, err := Load("mega")
	require.NoError(t, err)
	require.Len(t, mega.USART, 2)
	cfg, err := mega.USART[1].Config()
	require.NoError(t, err)
	require.Equal(t, usart.ParityEven, cfg.Parity)
	require.Equal(t, uint8(2), cfg.StopBits)
	require.Equal(t, chip.USART1, mega.USART[1].Unit())
	require.Equal(t, uint32(400_000), mega.TWI.Config().Frequency)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, mega.Slaves[0].Bytes())
}

func TestDecodeDefaults(t *testing.T) {
	b, err := Decode([]byte(`{"chip":"328p"}`))
	require.NoError(t, err)
	require.Equal(t, uint32(DefaultCPUHz), b.CPUHz)
	require.Nil(t, b.TWI)
	require.Zero(t, b.TWI.Config().Frequency)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":     `{"chip":"328p","clock":1}`,
		"unknown chip":    `{"chip":"attiny85"}`,
		"absent usart":    `{"chip":"328p","usart":[{"id":1}]}`,
		"duplicate usart": `{"chip":"2560","usart":[{"id":2},{"id":2}]}`,
		"bad mode":        `{"chip":"328p","usart":[{"id":0,"mode":"spi"}]}`,
		"bad parity":      `{"chip":"328p","usart":[{"id":0,"parity":"mark"}]}`,
		"wide address":    `{"chip":"328p","slaves":[{"address":200,"type":"memory"}]}`,
		"shared address":  `{"chip":"328p","slaves":[{"address":8,"type":"memory"},{"address":8,"type":"script"}]}`,
		"bad slave":       `{"chip":"328p","slaves":[{"address":8,"type":"eeprom"}]}`,
		"byte range":      `{"chip":"328p","slaves":[{"address":8,"type":"script","reply":[256]}]}`,
		"not json":        `chip: 328p`,
	}
	for name, raw := range cases {
		_, err := Decode([]byte(raw))
		require.Error(t, err, name)
		require.Equal(t, errcode.InvalidParams, errcode.Of(err), name)
	}
}

func TestLoadFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "board")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chip":"atmega2560","usart":[{"id":3,"baud":57600}]}`), 0o644))
	b, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, chip.USART3, b.USART[0].Unit())

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.Equal(t, errcode.InvalidParams, errcode.Of(err))
	require.True(t, os.IsNotExist(errors.Unwrap(err)))
	require.Contains(t, err.Error(), "missing.json")

	_, err = Decode([]byte(`{"chip":"328p","cpu_mhz":16}`))
	require.Contains(t, err.Error(), "config.decode: invalid_params: json: unknown field")
}
