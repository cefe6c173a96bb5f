// Package config loads the bfenv settings from CUE files.
//
// A setting is taken from the first file defining it; files are searched
// in the working directory, then in the user configuration directory.
//
//	eof:        0 | 255     // Input EOF sentinel.
//	echo:       bool        // Echo input to the output.
//	yield_step: int & >0    // Instructions between host yields.
//	block_size: int & >0    // Tape growth block.
//	encoding:   string      // Text encoding of input and output.
//	verbose:    bool
//	lang:       string      // Message locale, e.g. "ja-JP".
package config

import (
	_ "embed"
	"os"
	"path/filepath"

	bfio "github.com/ezrec/bfenv/io"
	"github.com/ezrec/bfenv/tape"
)

//go:embed schema.cue
var schemaSrc string

const (
	DEFAULT_EOF        = bfio.EOF_MAX
	DEFAULT_YIELD_STEP = 2_000_000
)

// FILE_NAMES are searched for in the working directory.
var FILE_NAMES = []string{"bfenv.cue", ".bfenv.cue"}

// Config is the set of bfenv settings.
type Config struct {
	EOF       int
	Echo      bool
	YieldStep int
	BlockSize int
	Encoding  string
	Verbose   bool
	Lang      string
}

// Default returns the settings used when no file sets them.
func Default() Config {
	return Config{
		EOF:       DEFAULT_EOF,
		Echo:      true,
		YieldStep: DEFAULT_YIELD_STEP,
		BlockSize: tape.BLOCK_SIZE,
		Encoding:  bfio.DEFAULT_ENCODING,
	}
}

// Paths returns the existing configuration files, in priority order.
func Paths() (paths []string) {
	candidates := append([]string{}, FILE_NAMES...)
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "bfenv", "config.cue"))
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			paths = append(paths, path)
		}
	}

	return
}

// Load reads the settings from the files, in priority order.
func Load(paths ...string) (cfg Config, err error) {
	cfg = Default()
	loader := NewLoader(paths, schemaSrc)

	settings := []struct {
		path   string
		target any
	}{
		{"eof", &cfg.EOF},
		{"echo", &cfg.Echo},
		{"yield_step", &cfg.YieldStep},
		{"block_size", &cfg.BlockSize},
		{"encoding", &cfg.Encoding},
		{"verbose", &cfg.Verbose},
		{"lang", &cfg.Lang},
	}

	for _, setting := range settings {
		err = loader.AssignFirst(setting.path, setting.target)
		if err == ErrValueNotFound {
			err = nil
			continue
		}
		if err != nil {
			err = ErrConfig{Key: setting.path, Err: err}
			return
		}
	}

	return
}

// ErrConfig is a configuration loading error.
type ErrConfig struct {
	Key string
	Err error
}

func (err ErrConfig) Error() string {
	return f("config %v: %v", err.Key, err.Err)
}

func (err ErrConfig) Unwrap() error {
	return err.Err
}
