package config

import (
	"errors"
	"iter"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/ezrec/bfenv/translate"
)

var f = translate.From

var (
	ErrValueNotFound = errors.New(f("value not found"))
)

// Loader reads CUE files, validated against a schema. Files are compiled
// once, on first use.
type Loader struct {
	getRoots func() ([]rootInfo, error)
}

type rootInfo struct {
	value cue.Value
	path  string
}

// NewLoader creates a loader for the files, in priority order.
func NewLoader(filePaths []string, schemaSrc string) Loader {
	return Loader{
		getRoots: sync.OnceValues(func() (ret []rootInfo, err error) {
			ctx := cuecontext.New()

			var schema cue.Value
			if schemaSrc != "" {
				schema = ctx.CompileString("close({" + schemaSrc + "})")
				if err = schema.Err(); err != nil {
					return
				}
			}

			for _, filePath := range filePaths {
				var content []byte
				content, err = os.ReadFile(filePath)
				if err != nil {
					return
				}

				value := ctx.CompileBytes(content, cue.Filename(filePath))
				if err = value.Err(); err != nil {
					return
				}

				if schema.Exists() {
					if err = schema.Unify(value).Validate(); err != nil {
						return
					}
				}

				ret = append(ret, rootInfo{
					value: value,
					path:  filePath,
				})
			}

			return
		}),
	}
}

// Values iterates over every file defining path, and the file name.
func (l Loader) Values(path string) iter.Seq2[cue.Value, string] {
	return func(yield func(cue.Value, string) bool) {
		roots, err := l.getRoots()
		if err != nil {
			return
		}

		cuePath := cue.ParsePath(path)
		for _, info := range roots {
			value := info.value.LookupPath(cuePath)
			if value.Err() != nil || !value.Exists() {
				continue
			}
			if !yield(value, info.path) {
				return
			}
		}
	}
}

// AssignFirst decodes the value at path of the first file defining it.
func (l Loader) AssignFirst(path string, target any) (err error) {
	_, err = l.getRoots()
	if err != nil {
		return
	}

	for value := range l.Values(path) {
		return value.Decode(target)
	}

	err = ErrValueNotFound
	return
}

// First returns the value at path of the first file defining it,
// or fallback if none does.
func First[T any](loader Loader, path string, fallback T) (value T, err error) {
	err = loader.AssignFirst(path, &value)
	if errors.Is(err, ErrValueNotFound) {
		value, err = fallback, nil
	}
	return
}
