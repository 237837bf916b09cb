//go:build windows

package keyboard

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Read puts stdin in raw mode and calls fn for every byte until ctx is done
// or fn returns false. The terminal is restored before Read returns. A read
// already blocked on stdin is abandoned when ctx ends.
func Read(ctx context.Context, fn func(b byte) bool) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return errors.Wrap(err, "raw mode")
	}
	defer term.Restore(fd, old)

	keys := make(chan byte)
	errc := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				errc <- err
				return
			}
			if n > 0 {
				select {
				case keys <- buf[0]:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return errors.Wrap(err, "read stdin")
		case b := <-keys:
			if !fn(b) {
				return nil
			}
		}
	}
}
