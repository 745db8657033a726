// Command rv64i loads a flat RV64I binary image and runs it to completion,
// reporting the terminating architectural exception.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/bassosimone/rv64i/internal/config"
	"github.com/bassosimone/rv64i/internal/cpu"
	"github.com/bassosimone/rv64i/internal/disasm"
	"github.com/bassosimone/rv64i/internal/exception"
)

func main() {
	log.SetFlags(0)
	filename := flag.String("f", "", "flat RV64I binary image to run")
	debug := flag.Bool("d", false, "pause for input before every instruction")
	verbose := flag.Bool("v", false, "enable structured execution tracing")
	trace := flag.Bool("trace", false, "alias for -v")
	timeout := flag.Duration("timeout", 0, "abort the run after this duration (0 disables)")
	flag.Parse()

	if *filename == "" {
		log.Fatal("usage: rv64i -f <image> [-v] [-d] [-trace] [-timeout DURATION]")
	}
	if flag.NArg() != 0 {
		log.Fatal("usage: rv64i -f <image> [-v] [-d] [-trace] [-timeout DURATION]")
	}

	image, err := os.ReadFile(*filename)
	if err != nil {
		log.Fatalf("rv64i: cannot read %q: %s", *filename, err)
	}

	tracing := *verbose || *trace || config.TraceFromEnv()

	var sugar *zap.SugaredLogger
	if tracing {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("rv64i: cannot build logger: %s", err)
		}
		defer logger.Sync() //nolint:errcheck
		sugar = logger.Sugar()
	}

	machine := cpu.New(image)

	exc := run(machine, sugar, *debug, *timeout)

	fmt.Fprintf(os.Stderr, "rv64i: halted: %s\n", exc)
	os.Exit(exitCode(exc))
}

// run drives the fetch-decode-execute loop to completion (or until timeout
// expires), optionally tracing every cycle and pausing for single-stepping.
// The core CPU itself exposes no cancellation; bounding execution is
// strictly a host-side concern layered on top via a goroutine and a
// context deadline.
func run(machine *cpu.CPU, sugar *zap.SugaredLogger, debug bool, timeout time.Duration) exception.Exception {
	if timeout <= 0 {
		return runLoop(machine, sugar, debug)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan exception.Exception, 1)
	go func() {
		done <- runLoop(machine, sugar, debug)
	}()

	select {
	case exc := <-done:
		return exc
	case <-ctx.Done():
		return timeoutException{}
	}
}

func runLoop(machine *cpu.CPU, sugar *zap.SugaredLogger, debug bool) exception.Exception {
	for {
		insnAddr := machine.PC()
		insn, fetchErr := machine.Fetch()
		if fetchErr != nil {
			return fetchErr
		}
		if sugar != nil {
			sugar.Debugw("cycle",
				"pc", fmt.Sprintf("0x%x", insnAddr),
				"insn", fmt.Sprintf("0x%08x", insn),
				"mnemonic", disasm.Disassemble(insn),
			)
		}
		if debug {
			log.Print("rv64i: paused, press enter to continue...")
			fmt.Scanln() //nolint:errcheck
		}
		if exc := machine.Step(insn); exc != nil {
			return exc
		}
	}
}

type timeoutException struct{}

func (timeoutException) Kind() string  { return "Timeout" }
func (timeoutException) Error() string { return "Timeout: execution exceeded -timeout duration" }

var _ exception.Exception = timeoutException{}

func exitCode(exc exception.Exception) int {
	var to timeoutException
	if errors.As(exc, &to) {
		return 2
	}
	return 1
}
