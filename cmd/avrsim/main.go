// Command avrsim drives the USART and TWI engines against a simulated
// ATmega328P or ATmega2560.
//
//	avrsim -board mega
//	avrsim -board uno -e 'trace on; usart.write 0 Hello World!; twi.scan'
//
// -board takes a built-in name (uno, mega) or a board JSON file. Logging
// goes through glog; -v=1 logs bring-up and command errors, -v=2 every
// command line.
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"avrhal-go/config"
)

var (
	boardName = "uno"
	script    string
)

func init() {
	flag.StringVar(&boardName, "board", boardName, "Built-in board name or board JSON file.")
	flag.StringVar(&script, "e", script, "Commands separated by ';' to run instead of the interactive shell.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	b, err := config.Load(boardName)
	if err != nil {
		glog.Exitf("board %q: %v", boardName, err)
	}
	s, err := newSession(b)
	if err != nil {
		glog.Exitf("board %q: %v", boardName, err)
	}
	glog.Infof("%s at %d Hz, %d usart, %d slaves", s.dev.Variant(), b.CPUHz, len(b.USART), len(b.Slaves))

	if script != "" {
		if err := s.eval(os.Stdout, script); err != nil {
			glog.Exit(err)
		}
		return
	}
	sh := newShell(s)
	if args := flag.Args(); len(args) > 0 {
		if err := sh.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	sh.Run()
}
