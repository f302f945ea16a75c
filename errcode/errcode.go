package errcode

// Code is a stable error identifier shared by every engine.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	HALNotReady   Code = "hal_not_ready"
	UnknownBus    Code = "unknown_bus"

	// Bounded polling loop exhausted without the expected hardware status.
	Timeout Code = "timeout"
	// Hardware reported a status other than the one the protocol expects.
	Protocol Code = "protocol_error"
	// Requested parameters do not fit the available register width.
	Configuration Code = "configuration_error"

	// USART receive-side integrity faults.
	FrameError   Code = "frame_error"
	OverrunError Code = "overrun_error"
	ParityError  Code = "parity_error"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.Timeout) match a wrapped code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap returns an *E with the given code and operation.
func Wrap(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	for e := err; e != nil; {
		if c, ok := e.(Code); ok {
			return c
		}
		if x, ok := e.(coder); ok {
			return x.Code()
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return Error
}

// Retryable reports whether a caller may reasonably repeat the operation.
// Only timeouts qualify; protocol and configuration errors will recur.
func Retryable(err error) bool { return Of(err) == Timeout }
