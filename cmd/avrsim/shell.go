package main

import (
	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
)

const sessionKey = "$session"

// ctxWriter sends command output to the shell.
type ctxWriter struct{ c *ishell.Context }

func (w ctxWriter) Write(p []byte) (int, error) {
	w.c.Print(string(p))
	return len(p), nil
}

// newShell exposes every command on an ishell prompt.
func newShell(s *session) *ishell.Shell {
	sh := ishell.New()
	sh.Set(sessionKey, s)
	sh.SetPrompt(s.dev.Variant().String() + " > ")
	for _, cmd := range commands {
		cmd := cmd
		sh.AddCmd(&ishell.Cmd{
			Name: cmd.name,
			Help: cmd.help,
			Func: func(c *ishell.Context) {
				s := c.Get(sessionKey).(*session)
				args := append([]string{cmd.name}, c.Args...)
				if err := s.exec(ctxWriter{c}, args); err != nil {
					glog.V(1).Infof("%s: %v", cmd.name, err)
					c.Err(err)
				}
			},
		})
	}
	return sh
}
