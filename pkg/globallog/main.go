package globallog

import (
	"fmt"
	"os"
)

// Runner is satisfied by *testing.M.
type Runner interface {
	Run() int
}

// Main sets up logging with capture of the os.Stdout file, runs m and
// restores stdout. It is meant for TestMain:
//
//	func TestMain(m *testing.M) {
//		os.Exit(globallog.Main(m, globallog.Config{Filename: "test.log"}))
//	}
//
// A setup failure is reported on stderr and m still runs without capture.
func Main(m Runner, cfg Config) int {
	cfg.CaptureFile = true
	if _, err := SetupWithStdoutCapture(cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "globallog: %v\n", err)
		return m.Run()
	}
	defer RestoreStdout()

	Logger().Debug("run started", "log_file", CurrentLogFile())
	code := m.Run()
	Logger().Debug("run finished", "exit_code", code)
	return code
}
