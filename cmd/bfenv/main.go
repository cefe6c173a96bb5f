// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/ezrec/bfenv/bf"
	"github.com/ezrec/bfenv/config"
	"github.com/ezrec/bfenv/debugger"
	bfio "github.com/ezrec/bfenv/io"
	"github.com/ezrec/bfenv/logs"
	"github.com/ezrec/bfenv/mark"
	"github.com/ezrec/bfenv/tape"
	bfterm "github.com/ezrec/bfenv/term"
	"github.com/ezrec/bfenv/translate"
)

func main() {
	var compile string
	var input string
	var output string
	var html string
	var configFile string
	var sync bool
	var debug bool
	var eof int
	var echo bool
	var encoding string
	var lang string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".bf file to run")
	flag.StringVar(&input, "i", "", "Program input file, '-' for stdin")
	flag.StringVar(&output, "o", "-", "Program output")
	flag.StringVar(&html, "html", "", "Also write the styled output as HTML")
	flag.StringVar(&configFile, "config", "", ".cue settings file, before the defaults")
	flag.BoolVar(&sync, "sync", false, "Fast run; no breakpoints or bounds checks")
	flag.BoolVar(&debug, "d", false, "Interactive debugger")
	flag.IntVar(&eof, "eof", config.DEFAULT_EOF, "Input EOF value, 0 or 255")
	flag.BoolVar(&echo, "echo", true, "Echo input to the output")
	flag.StringVar(&encoding, "encoding", bfio.DEFAULT_ENCODING, "Text encoding of input and output")
	flag.StringVar(&lang, "lang", "", "Message language")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) == 0 {
		log.Fatalf("%v: No program given; use -c", os.Args[0])
	}

	paths := config.Paths()
	if len(configFile) != 0 {
		paths = append([]string{configFile}, paths...)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	// Flags given on the command line win over the files.
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "eof":
			cfg.EOF = eof
		case "echo":
			cfg.Echo = echo
		case "encoding":
			cfg.Encoding = encoding
		case "lang":
			cfg.Lang = lang
		case "v":
			cfg.Verbose = verbose
		}
	})

	if len(cfg.Lang) != 0 {
		translate.SetLocales(cfg.Lang)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelInfo
	}
	logger := logs.NewLogger(os.Stderr, level)
	slog.SetDefault(logger)

	enc, err := bfio.LookupEncoding(cfg.Encoding)
	if err != nil {
		log.Fatalf("%v: %v", cfg.Encoding, err)
	}

	text, err := os.ReadFile(compile)
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	tp := tape.New(cfg.BlockSize)
	tp.BlockSize = cfg.BlockSize
	marks := mark.NewMarks(tp)

	scanner := bfio.NewScanner("")
	scanner.Encoding = enc
	err = scanner.SetEOF(cfg.EOF)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
	if len(input) != 0 {
		var inf io.Reader = os.Stdin
		if input != "-" {
			file, err := os.Open(input)
			if err != nil {
				log.Fatalf("%v: %v", input, err)
			}
			defer file.Close()
			inf = file
		}
		_, err = scanner.ReadFrom(inf)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
	}

	// Output on a terminal is drawn as it is produced; otherwise it is
	// written once the run ends.
	doc := &bfterm.Document{}
	var display bfterm.Display = doc
	live := output == "-" && term.IsTerminal(int(os.Stdout.Fd()))
	if live || debug {
		display = bfterm.Tee{doc, &bfterm.Terminal{Writer: os.Stdout}}
	}

	renderer := bfterm.NewRenderer(display)
	renderer.Encoding = enc

	d := debugger.NewDebugger(bf.NewLines(string(text)))
	d.Verbose = cfg.Verbose
	d.Logger = logger
	d.Tape = tp
	d.Marker = marks
	d.Input = scanner
	d.Output = renderer
	d.Echo = cfg.Echo
	d.YieldStep = cfg.YieldStep

	switch {
	case debug:
		err = runREPL(d, marks, compile, os.Stdout)
	case sync:
		err = d.StartSync()
	default:
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		err = d.Run(ctx)
		cancel()
	}

	if !live && !debug {
		err := writeOutput(output, doc)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}

	if len(html) != 0 {
		err := writeHTML(html, doc)
		if err != nil {
			log.Fatalf("%v: %v", html, err)
		}
	}

	if err != nil {
		var errCompile bf.ErrCompile
		var errRuntime *debugger.ErrRuntime
		if errors.As(err, &errCompile) || errors.As(err, &errRuntime) {
			// Already reported on the output.
			os.Exit(1)
		}
		log.Fatalf("%v: %v", compile, err)
	}
}

func writeOutput(output string, doc *bfterm.Document) (err error) {
	if output == "-" {
		_, err = io.WriteString(os.Stdout, doc.Text())
		return
	}

	ouf, err := os.Create(output)
	if err != nil {
		return
	}
	defer ouf.Close()

	_, err = io.WriteString(ouf, doc.Text())
	return
}

func writeHTML(path string, doc *bfterm.Document) (err error) {
	ouf, err := os.Create(path)
	if err != nil {
		return
	}
	defer ouf.Close()

	return bfterm.WriteHTML(ouf, doc.Segments)
}
