//go:build unix

package redirect

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// Redirection is an installed redirection of one descriptor.
type Redirection struct {
	fd     int
	saved  *os.File
	reader *os.File
	writer *os.File
	done   chan struct{}

	uninstall sync.Once
	err       error
}

// Install points target's descriptor at a new pipe and starts forwarding the
// pipe's lines to w. The original descriptor stays reachable through
// Original until Close.
func Install(target *os.File, w io.Writer) (*Redirection, error) {
	fd := int(target.Fd())

	savedFd, err := unix.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("error duplicating %s : %w", target.Name(), err)
	}
	unix.CloseOnExec(savedFd)
	saved := os.NewFile(uintptr(savedFd), target.Name())

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("error creating pipe : %w", err), saved.Close())
	}

	// Fd switches the writer to blocking mode, which the descriptor keeps
	// after dup2 so writes through target never fail with EAGAIN.
	if err := unix.Dup2(int(writer.Fd()), fd); err != nil {
		return nil, multierr.Combine(
			fmt.Errorf("error redirecting %s : %w", target.Name(), err),
			reader.Close(),
			writer.Close(),
			saved.Close(),
		)
	}

	r := &Redirection{
		fd:     fd,
		saved:  saved,
		reader: reader,
		writer: writer,
		done:   make(chan struct{}),
	}
	go r.forward(w)
	return r, nil
}

// Original returns the stream as it was before Install.
func (r *Redirection) Original() *os.File {
	return r.saved
}

// Uninstall restores the original descriptor and waits until every line
// already written to the pipe has been forwarded. It is idempotent.
func (r *Redirection) Uninstall() error {
	r.uninstall.Do(func() {
		r.err = unix.Dup2(int(r.saved.Fd()), r.fd)
		if r.err != nil {
			r.err = fmt.Errorf("error restoring descriptor %d : %w", r.fd, r.err)
		}

		r.err = multierr.Append(r.err, r.writer.Close())
		<-r.done
		r.err = multierr.Append(r.err, r.reader.Close())
	})
	return r.err
}

// Close uninstalls the redirection and releases the saved original.
func (r *Redirection) Close() error {
	err := r.Uninstall()
	if cerr := r.saved.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) {
		err = multierr.Append(err, cerr)
	}
	return err
}

func (r *Redirection) forward(w io.Writer) {
	defer close(r.done)

	br := bufio.NewReaderSize(r.reader, readBufferSize)
	for {
		line, err := br.ReadSlice('\n')
		if len(line) > 0 {
			w.Write(line)
		}
		if err != nil && !errors.Is(err, bufio.ErrBufferFull) {
			return
		}
	}
}
