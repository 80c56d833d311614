package log

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// D2GLogger is the human-facing output channel: plain progress lines for
// terminal use, raw JSON for machine consumption. Structured diagnostics
// go through zerolog instead.
type D2GLogger struct {
	OutputStyle types.OutputStyle
	Spinner     *spinner.Spinner
}

func NewLogger(style types.OutputStyle) *D2GLogger {
	return &D2GLogger{
		OutputStyle: style,
		Spinner: spinner.New(
			spinner.CharSets[11], // Default ⣾ style spinner, can modify this at the call site
			100*time.Millisecond,
			spinner.WithHiddenCursor(true)),
	}
}

func (l *D2GLogger) Info(msg string, args ...any) {
	if l.OutputStyle == types.StyleHuman || l.OutputStyle == types.StyleHumanVerbose {
		fmt.Printf(msg+"\n", args...)
	}
	// Silent for machine modes
}

func (l *D2GLogger) Verbose(msg string, args ...any) {
	if l.OutputStyle == types.StyleHumanVerbose {
		fmt.Printf(msg+"\n", args...)
	}
	// Silent for normal human and machine modes
}

func (l *D2GLogger) Error(msg string, args ...any) {
	if l.OutputStyle == types.StyleHuman || l.OutputStyle == types.StyleHumanVerbose {
		fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	}
	// Silent for machine modes
}

func (l *D2GLogger) Json(data any) {
	if l.OutputStyle == types.StyleMachineJSON {
		encoded, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(encoded))
	}
}

// StartSpinner starts the logger spinner. You can pass optionalCharset
// to override the default spinner. It is a variadic parameter but only
// the first argument will be used.
func (l *D2GLogger) StartSpinner(text string, optionalCharset ...[]string) {
	if l.OutputStyle == types.StyleHuman || l.OutputStyle == types.StyleHumanVerbose {
		l.Spinner.Suffix = " " + text
		if len(optionalCharset) > 0 {
			l.Spinner.UpdateCharSet(optionalCharset[0])
		}
		l.Spinner.Start()
	}
}

func (l *D2GLogger) StopSpinner() {
	if l.OutputStyle == types.StyleHuman || l.OutputStyle == types.StyleHumanVerbose {
		l.Spinner.Stop()
	}
}
