// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package debugger runs compiled programs against a memory tape, with
// breakpoints, single stepping, and run-until-loop-exit.
package debugger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kr/pretty"
	"gopkg.in/tomb.v2"

	"github.com/ezrec/bfenv/bf"
	bfio "github.com/ezrec/bfenv/io"
	"github.com/ezrec/bfenv/mark"
	"github.com/ezrec/bfenv/tape"
	"github.com/ezrec/bfenv/term"
)

const (
	YIELD_STEP = 2_000_000 // Instructions executed between host yields.
	NO_DEPTH   = -1        // No run-until loop depth.
)

// Printer receives the program output.
type Printer interface {
	Put(c byte)
	Print(text string)
	Println(text string)
	Flush()
	Reset()
	IsNewLine() bool
}

// Scanner supplies the program input.
type Scanner interface {
	Get() byte
	Reset() error
}

// Marker receives the memory annotations of '!mark' directives.
type Marker interface {
	AddMark(name string, pos, size int, color string)
	RemoveMark(name string)
	Reset()
}

// Highlighter shows the source of the paused instruction.
type Highlighter interface {
	// Highlight marks a span, returning the function removing the mark.
	Highlight(span bf.Span) (clear func())
}

// Debugger is the execution engine.
//
// A debug run (Start) executes on its own goroutine, and can be paused,
// stepped, resumed and stopped from others. A fast run (StartSync) executes
// on the caller's goroutine and cannot be interrupted.
type Debugger struct {
	Verbose bool         // If set, logs compilation and run transitions.
	Logger  *slog.Logger // Logger; never nil.

	Source  bf.Source   // Program source.
	Program *bf.Program // Program of the most recent compilation.

	Tape        *tape.Tape
	Input       Scanner
	Output      Printer
	Marker      Marker
	Highlighter Highlighter // Optional.

	Echo      bool // Echo input bytes to the output.
	YieldStep int  // Instructions between host yields.

	OnPause  func() // Optional; called when a run pauses.
	OnResume func() // Optional; called when a run starts or resumes.
	OnFinish func() // Optional; called once when a debug run ends.

	mutex      sync.Mutex
	tomb       *tomb.Tomb
	signal     atomic.Bool // A pause or stop may be pending.
	running    bool
	state      State
	pauseReq   chan struct{} // Closed when a requested pause is reached.
	resumeReq  chan struct{} // Closed to resume a paused run.
	pc         int
	loopDepth  int
	untilDepth int
	elapsed    time.Duration
	runStart   time.Time
}

// NewDebugger creates a debugger for source, with a fresh tape, an empty
// input, and output rendered to a term.Document.
func NewDebugger(source bf.Source) (d *Debugger) {
	tp := tape.New(tape.BLOCK_SIZE)

	d = &Debugger{
		Logger:     slog.Default(),
		Source:     source,
		Program:    &bf.Program{},
		Tape:       tp,
		Input:      bfio.NewScanner(""),
		Output:     term.NewRenderer(&term.Document{}),
		Marker:     mark.NewMarks(tp),
		Echo:       true,
		YieldStep:  YIELD_STEP,
		untilDepth: NO_DEPTH,
	}

	return
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}

// State returns the execution state.
func (d *Debugger) State() State {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.state
}

// IsRunning returns true while a run is active, paused or not.
func (d *Debugger) IsRunning() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.running
}

// Elapsed returns the run time of the current or last run, excluding
// the time spent paused.
func (d *Debugger) Elapsed() (elapsed time.Duration) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	elapsed = d.elapsed
	if d.state == STATE_RUNNING {
		elapsed += time.Since(d.runStart)
	}

	return
}

// Status returns a localised description of the state.
func (d *Debugger) Status() string {
	state, ms := d.State(), d.Elapsed().Milliseconds()

	switch state {
	case STATE_RUNNING:
		return f("running (%d ms)", ms)
	case STATE_PAUSED:
		return f("paused (%d ms)", ms)
	case STATE_FINISHED:
		return f("finished (%d ms)", ms)
	case STATE_STOPPED:
		return f("stopped (%d ms)", ms)
	case STATE_FAULTED:
		return f("runtime error")
	case STATE_COMPILE_ERROR:
		return f("compile error")
	}

	return f("idle")
}

// Current returns the instruction a run is paused at, or faulted on.
func (d *Debugger) Current() (pc int, insn bf.Instruction, ok bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.state != STATE_PAUSED && d.state != STATE_FAULTED {
		return
	}
	if d.pc < 0 || d.pc >= len(d.Program.Instructions) {
		return
	}

	pc, insn, ok = d.pc, d.Program.Instructions[d.pc], true
	return
}

func (d *Debugger) reset() {
	d.Tape.Reset()
	d.Output.Reset()

	err := d.Input.Reset()
	if err != nil {
		d.Logger.Warn("debugger: input", "err", err)
	}

	if d.Marker != nil {
		d.Marker.Reset()
	}
}

func (d *Debugger) refresh() {
	d.Tape.Refresh()
	d.Output.Flush()
}

func (d *Debugger) compile() (prog *bf.Program, err error) {
	prog, err = bf.Compile(d.Source)

	if d.Verbose {
		d.Logger.Info("debugger: compiled", "instructions", prog.Len(), "diagnostics", len(prog.Diagnostics))
		d.Logger.Info("debugger: listing", "program", pretty.Sprint(prog.Instructions))
	}

	var errCompile bf.ErrCompile
	if errors.As(err, &errCompile) {
		d.Output.Print(errCompile.Report())
	}

	return
}

// claim marks the debugger as running, and prepares a new run.
// Returns false if a run is already active.
func (d *Debugger) claim() (ok bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.running {
		return
	}

	d.running = true
	d.tomb = nil
	d.state = STATE_IDLE
	d.pc = 0
	d.loopDepth = 0
	d.untilDepth = NO_DEPTH
	d.elapsed = 0

	ok = true
	return
}

// prepare resets the collaborators, and compiles the program.
func (d *Debugger) prepare() (insns []bf.Instruction, err error) {
	d.reset()

	prog, err := d.compile()

	d.mutex.Lock()
	d.Program = prog
	if err != nil {
		d.running = false
		d.state = STATE_COMPILE_ERROR
		ack := d.pauseReq
		d.pauseReq = nil
		d.mutex.Unlock()

		if ack != nil {
			close(ack)
		}
		return
	}
	d.state = STATE_RUNNING
	d.runStart = time.Now()
	d.mutex.Unlock()

	insns = prog.Instructions
	return
}

// Start begins a debug run, unless one is already active. Compilation
// errors are printed to the output, and returned. Cancelling ctx stops
// the run.
func (d *Debugger) Start(ctx context.Context) (err error) {
	if !d.claim() {
		return
	}

	insns, err := d.prepare()
	if err != nil {
		return
	}

	t, _ := tomb.WithContext(ctx)

	d.mutex.Lock()
	d.tomb = t
	d.signal.Store(d.pauseReq != nil)
	d.mutex.Unlock()

	go func() {
		<-t.Dying()
		d.signal.Store(true)
	}()

	if d.Verbose {
		d.Logger.Info("debugger: start")
	}

	notify(d.OnResume)

	t.Go(func() error {
		return d.run(t, insns)
	})

	return
}

// Wait waits for the debug run to end, returning its fault, if any.
func (d *Debugger) Wait() (err error) {
	d.mutex.Lock()
	t := d.tomb
	d.mutex.Unlock()

	if t == nil {
		return
	}

	return t.Wait()
}

// Run performs a complete debug run.
func (d *Debugger) Run(ctx context.Context) (err error) {
	err = d.Start(ctx)
	if err != nil {
		return
	}

	return d.Wait()
}

// settle clears the signal unless a request is still pending.
// The mutex must be held.
func (d *Debugger) settle() {
	d.signal.Store(false)
	if d.pauseReq != nil || d.tomb == nil || !d.tomb.Alive() {
		d.signal.Store(true)
	}
}

// arm requests a pause. The mutex must be held.
func (d *Debugger) arm() (ack chan struct{}) {
	ack = make(chan struct{})
	d.pauseReq = ack
	d.signal.Store(true)

	return
}

func (d *Debugger) alive() bool {
	return d.tomb != nil && d.tomb.Alive()
}

func await(ctx context.Context, ack <-chan struct{}) (err error) {
	select {
	case <-ack:
	case <-ctx.Done():
		err = ctx.Err()
	}
	return
}

// Pause requests a running program to pause, and waits until it does.
// It does nothing if the run is not active, is already paused, or a pause
// or stop is pending.
func (d *Debugger) Pause(ctx context.Context) (err error) {
	d.mutex.Lock()
	if !d.running || !d.alive() || d.pauseReq != nil || d.resumeReq != nil {
		d.mutex.Unlock()
		return
	}
	ack := d.arm()
	d.mutex.Unlock()

	return await(ctx, ack)
}

// Resume releases a paused run.
func (d *Debugger) Resume() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.resumeReq == nil || !d.alive() {
		return
	}

	close(d.resumeReq)
	d.resumeReq = nil
}

// Stop ends the run, and waits for its teardown to complete.
func (d *Debugger) Stop(ctx context.Context) (err error) {
	d.mutex.Lock()
	t := d.tomb
	if !d.running || !d.alive() {
		d.mutex.Unlock()
		return
	}
	t.Kill(nil)
	d.signal.Store(true)
	d.mutex.Unlock()

	if d.Verbose {
		d.Logger.Info("debugger: stop")
	}

	return await(ctx, t.Dead())
}

// Step executes a single instruction of a paused run, and pauses again.
// If no run is active, a new run is started paused at its first instruction.
func (d *Debugger) Step(ctx context.Context) (err error) {
	d.mutex.Lock()
	if d.running {
		if d.pauseReq != nil || d.resumeReq == nil || !d.alive() {
			d.mutex.Unlock()
			return
		}
		ack := d.arm()
		close(d.resumeReq)
		d.resumeReq = nil
		d.mutex.Unlock()

		return await(ctx, ack)
	}
	ack := d.arm()
	d.mutex.Unlock()

	err = d.Start(context.WithoutCancel(ctx))
	if err != nil {
		return
	}

	return await(ctx, ack)
}

// Until resumes a run paused inside a loop, pausing again once the
// innermost loop has been exited. Breakpoints still pause.
func (d *Debugger) Until(ctx context.Context) (err error) {
	d.mutex.Lock()
	if !d.running || d.pauseReq != nil || d.resumeReq == nil || !d.alive() || d.loopDepth < 1 {
		d.mutex.Unlock()
		return
	}
	d.untilDepth = d.loopDepth - 1
	ack := d.arm()
	close(d.resumeReq)
	d.resumeReq = nil
	d.mutex.Unlock()

	return await(ctx, ack)
}

// shouldPause decides if the run pauses before insn.
func (d *Debugger) shouldPause(insn *bf.Instruction) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.settle()

	return (d.pauseReq != nil && d.untilDepth < 0) || insn.Kind == bf.KIND_BREAK
}

// wait pauses the run before the instruction at pc, until resumed or stopped.
func (d *Debugger) wait(t *tomb.Tomb, pc int, insn *bf.Instruction) {
	d.mutex.Lock()
	d.elapsed += time.Since(d.runStart)
	d.state = STATE_PAUSED
	d.pc = pc
	d.untilDepth = NO_DEPTH
	ack := d.pauseReq
	d.pauseReq = nil
	resume := make(chan struct{})
	d.resumeReq = resume
	d.settle()
	d.mutex.Unlock()

	if d.Verbose {
		d.Logger.Info("debugger: paused", "pc", pc, "insn", insn.String(), "at", insn.Span.From.String())
	}

	d.refresh()

	var clear func()
	if d.Highlighter != nil {
		clear = d.Highlighter.Highlight(insn.Span)
	}

	notify(d.OnPause)

	if ack != nil {
		close(ack)
	}

	select {
	case <-resume:
	case <-t.Dying():
	}

	if clear != nil {
		clear()
	}

	d.mutex.Lock()
	if d.resumeReq == resume {
		d.resumeReq = nil
	}
	d.state = STATE_RUNNING
	d.runStart = time.Now()
	d.mutex.Unlock()

	if t.Alive() {
		notify(d.OnResume)
	}
}

func (d *Debugger) yield() {
	d.refresh()
	runtime.Gosched()
}

// runtimeError reports a fault on the output.
func (d *Debugger) runtimeError(message string) {
	if !d.Output.IsNewLine() {
		d.Output.Put(term.LF)
	}

	d.Output.Println("\x1b[;31m" + f("runtime error: %v", message) + "\x1b[m")
}

// recovered converts a panic during a run to an error.
func (d *Debugger) recovered(r any) (err error) {
	d.Logger.Error("debugger: unexpected fault", "panic", r)
	d.runtimeError(ErrUnexpected.Error())

	err = fmt.Errorf("%w: %v", ErrUnexpected, r)
	return
}

func (d *Debugger) fault(pc int, insn *bf.Instruction, err error) error {
	d.runtimeError(err.Error())

	d.mutex.Lock()
	d.pc = pc
	d.mutex.Unlock()

	return &ErrRuntime{PC: pc, Span: insn.Span, Err: err}
}

func (d *Debugger) directive(dir bf.Directive) {
	switch dir := dir.(type) {
	case *bf.Mark:
		if d.Marker == nil {
			return
		}
		if dir.Size == 0 {
			d.Marker.RemoveMark(dir.Name)
			return
		}
		pos := dir.Pos
		if dir.Relative {
			pos += d.Tape.Pointer
		}
		d.Marker.AddMark(dir.Name, pos, dir.Size, dir.Color)
	case *bf.Print:
		d.Output.Println(dir.Message)
	}
}

func (d *Debugger) run(t *tomb.Tomb, insns []bf.Instruction) (err error) {
	state := STATE_FINISHED

	defer func() {
		if r := recover(); r != nil {
			state = STATE_FAULTED
			err = d.recovered(r)
		}
		d.teardown(state)
	}()

	yieldStep := d.YieldStep
	if yieldStep <= 0 {
		yieldStep = YIELD_STEP
	}

	tp := d.Tape
	steps := 0
	for pc := 0; pc < len(insns); pc++ {
		insn := &insns[pc]

		if d.signal.Load() || insn.Kind == bf.KIND_BREAK {
			if !t.Alive() {
				state = STATE_STOPPED
				return
			}
			if d.shouldPause(insn) {
				d.wait(t, pc, insn)
				if !t.Alive() {
					state = STATE_STOPPED
					return
				}
			}
		} else if steps >= yieldStep {
			steps = 0
			d.yield()
		}
		steps++

		switch insn.Kind {
		case bf.KIND_ADVANCE:
			err = tp.AdvanceChecked(insn.Operand)
			if err != nil {
				state = STATE_FAULTED
				err = d.fault(pc, insn, err)
				return
			}
		case bf.KIND_ADD:
			tp.Add(insn.Operand)
		case bf.KIND_OUTPUT:
			d.Output.Put(tp.Read())
		case bf.KIND_INPUT:
			c := d.Input.Get()
			tp.Write(c)
			if d.Echo {
				d.Output.Put(c)
			}
		case bf.KIND_LOOP_BEGIN:
			if tp.Read() == 0 {
				pc = insn.Operand
			} else {
				d.loopDepth++
			}
		case bf.KIND_LOOP_END:
			if tp.Read() != 0 {
				pc = insn.Operand
			} else {
				d.mutex.Lock()
				d.loopDepth--
				if d.loopDepth == d.untilDepth {
					d.untilDepth = NO_DEPTH
				}
				d.mutex.Unlock()
			}
		case bf.KIND_DIRECTIVE:
			d.directive(insn.Directive)
		}
	}

	return
}

// teardown ends a debug run, releasing every waiter.
func (d *Debugger) teardown(state State) {
	d.mutex.Lock()
	d.elapsed += time.Since(d.runStart)
	d.running = false
	d.state = state
	d.untilDepth = NO_DEPTH
	ack, resume := d.pauseReq, d.resumeReq
	d.pauseReq, d.resumeReq = nil, nil
	d.mutex.Unlock()

	d.refresh()

	if d.Verbose {
		d.Logger.Info("debugger: finished", "state", state.String(), "elapsed", d.Elapsed())
	}

	notify(d.OnFinish)

	if ack != nil {
		close(ack)
	}
	if resume != nil {
		close(resume)
	}
}

// StartSync compiles and runs the program to completion on the calling
// goroutine, without breakpoints or notifications.
func (d *Debugger) StartSync() (err error) {
	if !d.claim() {
		return
	}

	insns, err := d.prepare()
	if err != nil {
		return
	}

	state := STATE_FINISHED
	defer func() {
		if r := recover(); r != nil {
			state = STATE_FAULTED
			err = d.recovered(r)
		}

		d.mutex.Lock()
		d.elapsed = time.Since(d.runStart)
		d.running = false
		d.state = state
		d.mutex.Unlock()

		d.refresh()
	}()

	tp := d.Tape
	for pc := 0; pc < len(insns); pc++ {
		insn := &insns[pc]
		switch insn.Kind {
		case bf.KIND_ADVANCE:
			err = tp.AdvanceUnchecked(insn.Operand)
			if err != nil {
				state = STATE_FAULTED
				err = d.fault(pc, insn, err)
				return
			}
		case bf.KIND_ADD:
			tp.AddUnchecked(insn.Operand)
		case bf.KIND_OUTPUT:
			d.Output.Put(tp.Data[tp.Pointer])
		case bf.KIND_INPUT:
			c := d.Input.Get()
			tp.Data[tp.Pointer] = c
			if d.Echo {
				d.Output.Put(c)
			}
		case bf.KIND_LOOP_BEGIN:
			if tp.Data[tp.Pointer] == 0 {
				pc = insn.Operand
			}
		case bf.KIND_LOOP_END:
			if tp.Data[tp.Pointer] != 0 {
				pc = insn.Operand
			}
		case bf.KIND_DIRECTIVE:
			d.directive(insn.Directive)
		}
	}

	return
}
