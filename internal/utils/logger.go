package utils

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds a JSON logger at the given level writing to w (stdout when nil).
// Level is one of debug, info, warn, error, fatal.
func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, err
	}
	if w == nil {
		w = os.Stdout
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl), nil
}
