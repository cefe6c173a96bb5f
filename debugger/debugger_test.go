package debugger

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/bfenv/bf"
	bfio "github.com/ezrec/bfenv/io"
	"github.com/ezrec/bfenv/mark"
	"github.com/ezrec/bfenv/tape"
	"github.com/ezrec/bfenv/term"
)

func newDebugger(text string, input string) (d *Debugger, doc *term.Document) {
	doc = &term.Document{}

	d = NewDebugger(bf.NewLines(text))
	d.Output = term.NewRenderer(doc)
	d.Input = bfio.NewScanner(input)
	d.Echo = false

	return
}

func pc(d *Debugger) int {
	pc, _, _ := d.Current()
	return pc
}

func TestNewDebugger(t *testing.T) {
	assert := assert.New(t)

	d := NewDebugger(bf.NewLines(""))
	assert.False(d.Verbose)
	assert.True(d.Echo)
	assert.Equal(YIELD_STEP, d.YieldStep)
	assert.Equal(tape.BLOCK_SIZE, d.Tape.Len())
	assert.Equal(STATE_IDLE, d.State())
	assert.Equal("idle", d.Status())
	assert.NotNil(d.Logger)
}

func TestRunEndToEnd(t *testing.T) {
	assert := assert.New(t)

	d, doc := newDebugger(",[.,]", "AB")
	d.Input.(*bfio.Scanner).SetEOF(bfio.EOF_ZERO)

	err := d.Run(context.Background())
	assert.NoError(err)
	assert.Equal("AB", doc.Text())
	assert.Equal(STATE_FINISHED, d.State())
	assert.Equal(0, d.Tape.Pointer)
	assert.Equal(byte(0), d.Tape.Read())
	assert.True(strings.HasPrefix(d.Status(), "finished ("))

	d, doc = newDebugger(",+[-.,+],", "AB")
	err = d.Run(context.Background())
	assert.NoError(err)
	assert.Equal("AB", doc.Text())
	assert.Equal(STATE_FINISHED, d.State())
	assert.Equal(0, d.Tape.Pointer)
	assert.Equal(byte(255), d.Tape.Read())
}

func TestStartSync(t *testing.T) {
	assert := assert.New(t)

	d, doc := newDebugger(",+[-.,+],", "AB")
	err := d.StartSync()
	assert.NoError(err)
	assert.Equal("AB", doc.Text())
	assert.Equal(STATE_FINISHED, d.State())
	assert.Equal(byte(255), d.Tape.Read())

	// Breakpoints are ignored; directives are not.
	d, doc = newDebugger("+@+!print(hi)>>!mark(m ~0 1 red)", "")
	err = d.StartSync()
	assert.NoError(err)
	assert.Equal("hi\n", doc.Text())
	assert.Equal(byte(2), d.Tape.Data[0])
	mk, ok := d.Marker.(*mark.Marks).Get("m")
	assert.True(ok)
	assert.Equal(2, mk.From)

	// Tape grows as needed.
	d, _ = newDebugger(strings.Repeat(">", tape.BLOCK_SIZE)+"+", "")
	err = d.StartSync()
	assert.NoError(err)
	assert.Equal(2*tape.BLOCK_SIZE, d.Tape.Len())
	assert.Equal(byte(1), d.Tape.Data[tape.BLOCK_SIZE])
}

func TestEcho(t *testing.T) {
	assert := assert.New(t)

	d, doc := newDebugger(",.", "Z")
	d.Echo = true

	err := d.Run(context.Background())
	assert.NoError(err)
	assert.Equal("ZZ", doc.Text())
}

func TestYield(t *testing.T) {
	assert := assert.New(t)

	d, _ := newDebugger("++++++++[>++<-]", "")
	d.YieldStep = 2

	err := d.Run(context.Background())
	assert.NoError(err)
	assert.Equal(STATE_FINISHED, d.State())
	assert.Equal(byte(16), d.Tape.Data[1])
}

func TestRuntimeFault(t *testing.T) {
	assert := assert.New(t)

	for _, sync := range []bool{false, true} {
		d, doc := newDebugger("+.<", "")

		var err error
		if sync {
			err = d.StartSync()
		} else {
			err = d.Run(context.Background())
		}

		var errRuntime *ErrRuntime
		assert.True(errors.As(err, &errRuntime))
		assert.Equal(2, errRuntime.PC)
		assert.Equal(bf.Position{Line: 0, Ch: 2}, errRuntime.Span.From)
		assert.True(errors.Is(err, tape.ErrOutOfRange(0)))
		assert.Equal(STATE_FAULTED, d.State())
		assert.Equal("runtime error", d.Status())
		assert.Equal("\x01\nruntime error: pointer -1 out of range\n", doc.Text())
		assert.Equal(2, pc(d))
	}
}

func TestCompileError(t *testing.T) {
	assert := assert.New(t)

	d, doc := newDebugger("+]", "")

	var errCompile bf.ErrCompile
	err := d.Start(context.Background())
	assert.True(errors.As(err, &errCompile))
	assert.Equal(STATE_COMPILE_ERROR, d.State())
	assert.Contains(doc.Text(), "unmatched ']'")
	assert.NoError(d.Wait())
	assert.False(d.IsRunning())

	err = d.StartSync()
	assert.True(errors.As(err, &errCompile))

	// A step never waits for a run that could not start.
	err = d.Step(context.Background())
	assert.True(errors.As(err, &errCompile))
	assert.Equal(STATE_COMPILE_ERROR, d.State())
}

func TestDirectives(t *testing.T) {
	assert := assert.New(t)

	d, doc := newDebugger("!mark(x 0 4 red)!print(hi)", "")
	err := d.Run(context.Background())
	assert.NoError(err)
	assert.Equal("hi\n", doc.Text())

	marks := d.Marker.(*mark.Marks)
	mk, ok := marks.Get("x")
	assert.True(ok)
	assert.Equal(0, mk.From)
	assert.Equal(4, mk.To)
	assert.Equal("red", mk.Color)

	d, _ = newDebugger("!mark(x 0 4 red)!mark(x)", "")
	err = d.Run(context.Background())
	assert.NoError(err)
	assert.Equal(0, d.Marker.(*mark.Marks).Len())

	d, _ = newDebugger(">>!mark(r ~1 2 blue)", "")
	err = d.Run(context.Background())
	assert.NoError(err)
	mk, ok = d.Marker.(*mark.Marks).Get("r")
	assert.True(ok)
	assert.Equal(3, mk.From)
	assert.Equal(5, mk.To)

	// Marks do not survive a new run.
	d.Source = bf.NewLines("+")
	err = d.Run(context.Background())
	assert.NoError(err)
	assert.Equal(0, d.Marker.(*mark.Marks).Len())
}

type highlighter struct {
	spans   []bf.Span
	cleared int
}

func (hl *highlighter) Highlight(span bf.Span) func() {
	hl.spans = append(hl.spans, span)
	return func() { hl.cleared++ }
}

func TestBreakpoint(t *testing.T) {
	assert := assert.New(t)

	d, _ := newDebugger("+@+", "")

	var pauses, resumes, finishes atomic.Int32
	paused := make(chan struct{}, 16)
	d.OnPause = func() {
		pauses.Add(1)
		paused <- struct{}{}
	}
	d.OnResume = func() { resumes.Add(1) }
	d.OnFinish = func() { finishes.Add(1) }

	hl := &highlighter{}
	d.Highlighter = hl

	err := d.Start(context.Background())
	assert.NoError(err)

	<-paused
	assert.Equal(STATE_PAUSED, d.State())
	assert.True(strings.HasPrefix(d.Status(), "paused ("))
	assert.Equal(byte(1), d.Tape.Read())
	pc, insn, ok := d.Current()
	assert.True(ok)
	assert.Equal(1, pc)
	assert.Equal(bf.KIND_BREAK, insn.Kind)

	d.Resume()
	err = d.Wait()
	assert.NoError(err)

	assert.Equal(STATE_FINISHED, d.State())
	assert.Equal(byte(2), d.Tape.Read())
	assert.Equal(int32(1), pauses.Load())
	assert.Equal(int32(2), resumes.Load())
	assert.Equal(int32(1), finishes.Load())
	assert.Equal([]bf.Span{{From: bf.Position{Line: 0, Ch: 1}, To: bf.Position{Line: 0, Ch: 2}}}, hl.spans)
	assert.Equal(1, hl.cleared)

	_, _, ok = d.Current()
	assert.False(ok)
}

func TestStep(t *testing.T) {
	assert := assert.New(t)

	d, _ := newDebugger("+>+++", "")
	ctx := context.Background()

	err := d.Step(ctx)
	assert.NoError(err)
	assert.Equal(STATE_PAUSED, d.State())
	assert.Equal(0, pc(d))
	assert.Equal(byte(0), d.Tape.Read())

	err = d.Step(ctx)
	assert.NoError(err)
	assert.Equal(1, pc(d))
	assert.Equal(byte(1), d.Tape.Data[0])

	err = d.Step(ctx)
	assert.NoError(err)
	assert.Equal(2, pc(d))
	assert.Equal(1, d.Tape.Pointer)

	// Stepping off the end finishes the run.
	err = d.Step(ctx)
	assert.NoError(err)
	assert.NoError(d.Wait())
	assert.Equal(STATE_FINISHED, d.State())
	assert.Equal(byte(3), d.Tape.Data[1])
}

func TestUntil(t *testing.T) {
	assert := assert.New(t)

	d, _ := newDebugger("++[>+++[-]<-]", "")
	ctx := context.Background()

	// Until needs to be inside a loop.
	err := d.Step(ctx)
	assert.NoError(err)
	err = d.Until(ctx)
	assert.NoError(err)
	assert.Equal(0, pc(d))

	for range 5 {
		err = d.Step(ctx)
		assert.NoError(err)
	}
	assert.Equal(5, pc(d))
	assert.Equal(byte(3), d.Tape.Data[1])

	// Run until the inner loop exits.
	err = d.Until(ctx)
	assert.NoError(err)
	assert.Equal(STATE_PAUSED, d.State())
	assert.Equal(7, pc(d))
	assert.Equal(1, d.Tape.Pointer)
	assert.Equal(byte(0), d.Tape.Data[1])
	assert.Equal(byte(2), d.Tape.Data[0])

	err = d.Stop(ctx)
	assert.NoError(err)
	assert.Equal(STATE_STOPPED, d.State())
}

func TestUntilBreakpoint(t *testing.T) {
	assert := assert.New(t)

	d, _ := newDebugger("++[>+++[-@]<-]", "")
	ctx := context.Background()

	paused := make(chan struct{}, 16)
	d.OnPause = func() { paused <- struct{}{} }

	err := d.Start(ctx)
	assert.NoError(err)
	<-paused
	assert.Equal(6, pc(d))
	assert.Equal(byte(2), d.Tape.Read())

	// Breakpoints inside the loop still pause.
	err = d.Until(ctx)
	assert.NoError(err)
	assert.Equal(6, pc(d))
	assert.Equal(byte(1), d.Tape.Read())

	err = d.Until(ctx)
	assert.NoError(err)
	assert.Equal(6, pc(d))
	assert.Equal(byte(0), d.Tape.Read())

	err = d.Until(ctx)
	assert.NoError(err)
	assert.Equal(8, pc(d))
	assert.Equal(1, d.Tape.Pointer)

	err = d.Stop(ctx)
	assert.NoError(err)
}

func TestStopWhilePaused(t *testing.T) {
	assert := assert.New(t)

	d, _ := newDebugger("+[]", "")
	ctx := context.Background()

	var finishes atomic.Int32
	d.OnFinish = func() { finishes.Add(1) }

	err := d.Step(ctx)
	assert.NoError(err)
	assert.Equal(STATE_PAUSED, d.State())

	err = d.Stop(ctx)
	assert.NoError(err)
	assert.Equal(STATE_STOPPED, d.State())
	assert.True(strings.HasPrefix(d.Status(), "stopped ("))
	assert.Equal(int32(1), finishes.Load())
	assert.False(d.IsRunning())
	assert.NoError(d.Wait())

	// Control operations on a finished run do nothing.
	d.Resume()
	assert.NoError(d.Pause(ctx))
	assert.NoError(d.Until(ctx))
	assert.NoError(d.Stop(ctx))
	assert.Equal(int32(1), finishes.Load())
}

func TestPauseResumeStop(t *testing.T) {
	assert := assert.New(t)

	d, _ := newDebugger("+[]", "")
	ctx := context.Background()

	err := d.Start(ctx)
	assert.NoError(err)

	// Already running.
	err = d.Start(ctx)
	assert.NoError(err)

	err = d.Pause(ctx)
	assert.NoError(err)
	assert.Equal(STATE_PAUSED, d.State())

	paused := d.Elapsed()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(paused, d.Elapsed())

	d.Resume()
	err = d.Stop(ctx)
	assert.NoError(err)
	assert.Equal(STATE_STOPPED, d.State())
}

func TestContextCancel(t *testing.T) {
	assert := assert.New(t)

	d, _ := newDebugger("+[]", "")

	ctx, cancel := context.WithCancel(context.Background())
	err := d.Start(ctx)
	assert.NoError(err)

	cancel()
	err = d.Wait()
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(STATE_STOPPED, d.State())
}
