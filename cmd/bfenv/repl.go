package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/ezrec/bfenv/bf"
	"github.com/ezrec/bfenv/debugger"
	"github.com/ezrec/bfenv/mark"
	"github.com/ezrec/bfenv/tape"
	"github.com/ezrec/bfenv/translate"
)

var f = translate.From

const (
	MEMORY_WIDTH = 16 // Cells per memory dump row.
	HISTORY_FILE = "bfenv-history"
)

const helpText = `run        start the program
step       execute one instruction
continue   resume a paused program
until      run until the current loop exits
pause      pause a running program
stop       stop the program
memory     show the tape
marks      list the memory marks
program    list the compiled instructions
status     show the debugger state
reload     read the program file again
quit       leave the debugger
Ctrl-C pauses a running program, or stops it during step and until.
`

// sourceHighlighter shows the source line of a paused instruction.
type sourceHighlighter struct {
	Writer io.Writer
	Source bf.Source
}

func (sh *sourceHighlighter) Highlight(span bf.Span) (clear func()) {
	clear = func() {}

	line := span.From.Line
	if line < 0 || line >= sh.Source.LineCount() {
		return
	}

	width := 1
	if span.To.Line == line && span.To.Ch > span.From.Ch {
		width = span.To.Ch - span.From.Ch
	}

	fmt.Fprintf(sh.Writer, "%v: %v\n", span.From, sh.Source.Line(line))
	fmt.Fprintf(sh.Writer, "%v  %v\x1b[32m^%v\x1b[39m\n",
		strings.Repeat(" ", len(span.From.String())),
		strings.Repeat(" ", span.From.Ch),
		strings.Repeat("~", width-1))

	return
}

// writeMemory dumps the tape in rows, showing the pointer in inverse and
// marked cells in their colour. Rows of zero cells are collapsed.
func writeMemory(w io.Writer, tp *tape.Tape, marks *mark.Marks) {
	skipped := false
	for index, row := range tp.Rows(MEMORY_WIDTH) {
		interesting := tp.Pointer >= index && tp.Pointer < index+len(row)
		for n, c := range row {
			if _, ok := marks.At(index + n); c != 0 || ok {
				interesting = true
				break
			}
		}
		if !interesting {
			if !skipped {
				fmt.Fprintln(w, "*")
			}
			skipped = true
			continue
		}
		skipped = false

		fmt.Fprintf(w, "%06x:", index)
		for n, c := range row {
			cell := fmt.Sprintf("%02x", c)
			if mk, ok := marks.At(index + n); ok {
				fg := "0;0;0"
				if mk.Foreground == "white" {
					fg = "255;255;255"
				}
				bg := mk.Background
				cell = fmt.Sprintf("\x1b[38;2;%vm\x1b[48;2;%v;%v;%vm%v\x1b[39;49m", fg, bg.R, bg.G, bg.B, cell)
			}
			if index+n == tp.Pointer {
				cell = "\x1b[7m" + cell + "\x1b[27m"
			}
			fmt.Fprintf(w, " %v", cell)
		}
		fmt.Fprintln(w)
	}
}

// writeMarks lists the marks.
func writeMarks(w io.Writer, marks *mark.Marks) {
	for mk := range marks.All() {
		fmt.Fprintf(w, "%v: [%d, %d) %v\n", mk.Name, mk.From, mk.To, mk.Color)
	}
}

// repl is an interactive debugger session.
type repl struct {
	Debugger *debugger.Debugger
	Marks    *mark.Marks
	Path     string
	Writer   io.Writer

	halted    chan struct{}
	interrupt chan os.Signal
}

func runREPL(d *debugger.Debugger, marks *mark.Marks, path string, w io.Writer) (err error) {
	r := &repl{
		Debugger:  d,
		Marks:     marks,
		Path:      path,
		Writer:    w,
		halted:    make(chan struct{}, 1),
		interrupt: make(chan os.Signal, 1),
	}

	d.Highlighter = &sourceHighlighter{Writer: w, Source: d.Source}
	d.OnPause = r.halt
	d.OnFinish = r.halt

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := ""
	if dir, err := os.UserConfigDir(); err == nil {
		historyPath = filepath.Join(dir, "bfenv", HISTORY_FILE)
		if inf, err := os.Open(historyPath); err == nil {
			line.ReadHistory(inf)
			inf.Close()
		}
	}

	defer func() {
		if historyPath == "" {
			return
		}
		if err := os.MkdirAll(filepath.Dir(historyPath), 0755); err != nil {
			slog.Warn("repl: history", "err", err)
			return
		}
		if ouf, err := os.Create(historyPath); err == nil {
			line.WriteHistory(ouf)
			ouf.Close()
		}
	}()

	ctx := context.Background()
	for {
		input, err := line.Prompt("(bfenv) ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			break
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := r.Execute(ctx, input)
		if err != nil {
			fmt.Fprintln(w, err)
		}
		if quit {
			break
		}
	}

	return d.Stop(ctx)
}

func (r *repl) halt() {
	select {
	case r.halted <- struct{}{}:
	default:
	}
}

func (r *repl) drain() {
	select {
	case <-r.halted:
	default:
	}
}

// interruptible runs fn, which waits on the run. An interrupt pauses the
// run when pausable; an interrupt that cannot pause stops it.
func (r *repl) interruptible(ctx context.Context, pausable bool, fn func() error) (err error) {
	signal.Notify(r.interrupt, os.Interrupt)
	defer signal.Stop(r.interrupt)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	for {
		select {
		case err = <-done:
			return
		case <-r.interrupt:
			if pausable {
				pausable = false
				go r.Debugger.Pause(ctx)
			} else {
				go r.Debugger.Stop(ctx)
			}
		}
	}
}

// await blocks until the run pauses or ends.
func (r *repl) await(ctx context.Context) error {
	return r.interruptible(ctx, true, func() error {
		<-r.halted
		return nil
	})
}

// Execute performs one debugger command.
func (r *repl) Execute(ctx context.Context, command string) (quit bool, err error) {
	d := r.Debugger

	switch command {
	case "run", "r":
		if d.IsRunning() {
			err = errors.New(f("program is already running"))
			return
		}
		r.drain()
		err = d.Start(ctx)
		if err != nil {
			return
		}
		err = r.await(ctx)
	case "step", "s":
		r.drain()
		err = r.interruptible(ctx, false, func() error {
			return d.Step(ctx)
		})
	case "continue", "c":
		if d.State() != debugger.STATE_PAUSED {
			err = errors.New(f("program is not paused"))
			return
		}
		r.drain()
		d.Resume()
		err = r.await(ctx)
	case "pause":
		if d.State() != debugger.STATE_RUNNING {
			err = errors.New(f("program is not running"))
			return
		}
		err = d.Pause(ctx)
	case "until", "u":
		r.drain()
		// A pending until already holds the pause; an interrupt stops.
		err = r.interruptible(ctx, false, func() error {
			return d.Until(ctx)
		})
	case "stop":
		err = d.Stop(ctx)
	case "memory", "m":
		writeMemory(r.Writer, d.Tape, r.Marks)
	case "marks":
		writeMarks(r.Writer, r.Marks)
	case "program", "p":
		for pc, insn := range d.Program.Instructions {
			fmt.Fprintf(r.Writer, "%5d %-8v %v\n", pc, insn.Span.From, insn)
		}
	case "status":
		fmt.Fprintln(r.Writer, d.Status())
		if pc, insn, ok := d.Current(); ok {
			fmt.Fprintf(r.Writer, "pc %d: %v\n", pc, insn)
		}
	case "reload":
		if d.IsRunning() {
			err = errors.New(f("program is already running"))
			return
		}
		var text []byte
		text, err = os.ReadFile(r.Path)
		if err != nil {
			return
		}
		d.Source = bf.NewLines(string(text))
		d.Highlighter = &sourceHighlighter{Writer: r.Writer, Source: d.Source}
	case "help", "h", "?":
		io.WriteString(r.Writer, helpText)
	case "quit", "q", "exit":
		quit = true
	default:
		err = errors.New(f("unknown command '%v'", command))
	}

	if d.State() != debugger.STATE_RUNNING && !d.Output.IsNewLine() {
		fmt.Fprintln(r.Writer)
	}

	return
}
