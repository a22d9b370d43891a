package pdfform

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// Validate confirms path is a readable PDF and returns its page count, the
// precheck every run performs before touching the network (R4.1). Anything
// unreadable wraps ErrMalformedInput. The parser is known to panic on some
// corrupt files, so the check recovers and reports those the same way.
func Validate(path string) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = fmt.Errorf("%w: %v", ErrMalformedInput, r)
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ErrMalformedInput, path)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrMalformedInput, path)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer f.Close()

	return r.NumPage(), nil
}
