package util

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// ReadSource reads source code from the file named by opt.Src, or from r if
// opt.Src is empty.
func ReadSource(opt Options, r io.Reader) (string, error) {
	if len(opt.Src) > 0 {
		b, err := os.ReadFile(opt.Src)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if r == nil {
		return "", errors.New("no source file given and no reader supplied for stdin")
	}
	b, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// OpenOutput opens opt.Out for writing, truncating or creating it as
// necessary. If opt.Out is empty, os.Stdout is returned and closing it is a
// no-op.
func OpenOutput(opt Options) (io.WriteCloser, error) {
	if len(opt.Out) == 0 || opt.Out == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
