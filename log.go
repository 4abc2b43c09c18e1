package sfsynth

import (
	"fmt"
	"os"
)

// WarnHandler receives every non-fatal warning raised by the package's
// parser, loader, engine, voice table, and MIDI listener (VersionWarning,
// PitchCorrectionWarning, ChannelMismatchWarning, RecordingCapWarning, and
// others). The default just prints to stderr; cmd/sfsynth and cmd/sfinfo
// override it to colorize the line with fatih/color, per §7.
var WarnHandler = func(err error) {
	fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
}

func warn(err error) {
	WarnHandler(err)
}
