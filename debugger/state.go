package debugger

// State is the execution state of a Debugger.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_IDLE          = State(0) // idle
	STATE_RUNNING       = State(1) // running
	STATE_PAUSED        = State(2) // paused
	STATE_FINISHED      = State(3) // finished
	STATE_STOPPED       = State(4) // stopped
	STATE_FAULTED       = State(5) // faulted
	STATE_COMPILE_ERROR = State(6) // compile_error
)

// Done returns true if the state is final.
func (st State) Done() bool {
	switch st {
	case STATE_FINISHED, STATE_STOPPED, STATE_FAULTED, STATE_COMPILE_ERROR:
		return true
	}
	return false
}
