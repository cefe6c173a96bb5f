package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/bfenv/bf"
	"github.com/ezrec/bfenv/debugger"
	"github.com/ezrec/bfenv/mark"
	"github.com/ezrec/bfenv/tape"
)

func newREPL(source string) (r *repl, buf *bytes.Buffer) {
	buf = &bytes.Buffer{}

	d := debugger.NewDebugger(bf.NewLines(source))
	r = &repl{
		Debugger:  d,
		Marks:     d.Marker.(*mark.Marks),
		Writer:    buf,
		halted:    make(chan struct{}, 1),
		interrupt: make(chan os.Signal, 1),
	}
	d.Highlighter = &sourceHighlighter{Writer: buf, Source: d.Source}
	d.OnPause = r.halt
	d.OnFinish = r.halt

	return
}

func TestHighlight(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	sh := &sourceHighlighter{Writer: &buf, Source: bf.NewLines("+\n  !print(hi)")}

	sh.Highlight(bf.Span{
		From: bf.Position{Line: 1, Ch: 2},
		To:   bf.Position{Line: 1, Ch: 12},
	})
	assert.Equal("2:3:   !print(hi)\n"+
		"       \x1b[32m^~~~~~~~~\x1b[39m\n", buf.String())

	buf.Reset()
	sh.Highlight(bf.Span{From: bf.Position{Line: 7}})
	assert.Empty(buf.String())
}

func TestWriteMemory(t *testing.T) {
	assert := assert.New(t)

	tp := tape.New(64)
	tp.Data[1] = 0xab
	tp.Pointer = 1

	marks := mark.NewMarks(tp)
	marks.AddMark("m", 40, 1, "black")

	var buf bytes.Buffer
	writeMemory(&buf, tp, marks)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(lines, 4)
	assert.True(strings.HasPrefix(lines[0], "000000: 00 \x1b[7mab\x1b[27m 00"))
	assert.Equal("*", lines[1])
	assert.True(strings.HasPrefix(lines[2], "000020: 00"))
	assert.Contains(lines[2], "\x1b[38;2;255;255;255m\x1b[48;2;0;0;0m00\x1b[39;49m")
	assert.Equal("*", lines[3])
}

func TestWriteMarks(t *testing.T) {
	assert := assert.New(t)

	marks := mark.NewMarks(tape.New(64))
	marks.AddMark("m", 2, 3, "red")

	var buf bytes.Buffer
	writeMarks(&buf, marks)
	assert.Equal("m: [2, 5) red\n", buf.String())
}

func TestExecute(t *testing.T) {
	assert := assert.New(t)

	r, buf := newREPL("+++@>++")
	d := r.Debugger
	ctx := context.Background()

	quit, err := r.Execute(ctx, "continue")
	assert.False(quit)
	assert.Error(err)

	_, err = r.Execute(ctx, "run")
	assert.NoError(err)
	assert.Equal(debugger.STATE_PAUSED, d.State())
	assert.Contains(buf.String(), "1:4: +++@>++\n")

	buf.Reset()
	_, err = r.Execute(ctx, "status")
	assert.NoError(err)
	assert.True(strings.HasPrefix(buf.String(), "paused ("))
	assert.Contains(buf.String(), "pc 1: break")

	_, err = r.Execute(ctx, "run")
	assert.Error(err)

	_, err = r.Execute(ctx, "continue")
	assert.NoError(err)
	assert.Equal(debugger.STATE_FINISHED, d.State())
	assert.Equal(byte(2), d.Tape.Read())

	_, err = r.Execute(ctx, "frobnicate")
	assert.Error(err)

	quit, err = r.Execute(ctx, "quit")
	assert.NoError(err)
	assert.True(quit)
}

func TestExecuteStep(t *testing.T) {
	assert := assert.New(t)

	r, buf := newREPL("+>+")
	d := r.Debugger
	ctx := context.Background()

	_, err := r.Execute(ctx, "step")
	assert.NoError(err)
	assert.Equal(debugger.STATE_PAUSED, d.State())
	pc, _, _ := d.Current()
	assert.Equal(0, pc)

	_, err = r.Execute(ctx, "step")
	assert.NoError(err)
	pc, _, _ = d.Current()
	assert.Equal(1, pc)

	buf.Reset()
	_, err = r.Execute(ctx, "program")
	assert.NoError(err)
	assert.Equal(3, strings.Count(buf.String(), "\n"))

	_, err = r.Execute(ctx, "stop")
	assert.NoError(err)
	assert.Equal(debugger.STATE_STOPPED, d.State())
}

func interruptLater(r *repl) {
	go func() {
		time.Sleep(20 * time.Millisecond)
		r.interrupt <- os.Interrupt
	}()
}

func TestInterruptRun(t *testing.T) {
	assert := assert.New(t)

	r, _ := newREPL("+[]")
	d := r.Debugger
	ctx := context.Background()

	interruptLater(r)
	_, err := r.Execute(ctx, "run")
	assert.NoError(err)
	assert.Equal(debugger.STATE_PAUSED, d.State())

	_, err = r.Execute(ctx, "stop")
	assert.NoError(err)
	assert.Equal(debugger.STATE_STOPPED, d.State())
}

func TestInterruptUntil(t *testing.T) {
	assert := assert.New(t)

	r, _ := newREPL("+[@+[]]")
	d := r.Debugger
	ctx := context.Background()

	_, err := r.Execute(ctx, "run")
	assert.NoError(err)
	assert.Equal(debugger.STATE_PAUSED, d.State())

	// The inner loop never exits, so only a stop ends the wait.
	interruptLater(r)
	_, err = r.Execute(ctx, "until")
	assert.NoError(err)
	assert.Eventually(func() bool {
		return d.State() == debugger.STATE_STOPPED
	}, time.Second, time.Millisecond)
}
