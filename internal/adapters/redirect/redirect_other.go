//go:build !unix

package redirect

import (
	"io"
	"os"
)

type Redirection struct{}

func Install(*os.File, io.Writer) (*Redirection, error) {
	return nil, ErrUnsupported
}

func (r *Redirection) Original() *os.File { return nil }
func (r *Redirection) Uninstall() error   { return nil }
func (r *Redirection) Close() error       { return nil }
