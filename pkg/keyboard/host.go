//go:build !windows

package keyboard

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

const pollInterval = 5 * time.Millisecond

// Read puts stdin in raw mode and calls fn for every byte until ctx is done
// or fn returns false. The terminal is restored before Read returns.
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

	if err := syscall.SetNonblock(fd, true); err != nil {
		return errors.Wrap(err, "nonblocking stdin")
	}
	defer syscall.SetNonblock(fd, false)

	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := syscall.Read(fd, buf)
		if n > 0 {
			if !fn(buf[0]) {
				return nil
			}
			continue
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || (err == nil && n == 0) {
			time.Sleep(pollInterval)
			continue
		}
		if err != nil {
			return errors.Wrap(err, "read stdin")
		}
	}
}
