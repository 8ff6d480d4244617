// Package util provides cross-cutting helpers shared by every compilation
// stage: command line option parsing, a thread-safe generic stack (used for
// the runtime's free-stack frames), and a parallel error collector.
package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Options configures one compilation job. A zero-value Options compiles
// with defaults: single-threaded, no verbose logging, fallback enabled.
type Options struct {
	Src          string // Path to source file. Empty means read from stdin.
	Out          string // Path to write the rewritten source / compiled object. Empty means stdout.
	Threads      int    // Worker count for parallel CFG emission. 0 or 1 means sequential.
	Verbose      bool   // Print per-function compile, skip and fallback diagnostics to stderr.
	TokenStream  bool   // Output the token stream and exit, without compiling.
	DumpCFG      bool   // Print the CFG of every compiled function before lowering.
	NoFallback   bool   // Disable the fallback-to-interpreter behaviour; surface compile errors instead. Intended for tests only.
	Module       bool   // Set by -module. Compile does not read it, so it has no effect on the output.
}

const maxThreads = 64

// ParseArgs parses command line arguments into an Options structure.
func ParseArgs(args []string) (Options, error) {
	opt := Options{Threads: 1}
	if len(args) == 0 {
		return opt, nil
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-o":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("flag %s requires an argument", args[i])
			}
			i++
			opt.Out = args[i]
		case "-t":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("flag %s requires an argument", args[i])
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 1 || n > maxThreads {
				return opt, fmt.Errorf("thread count must be an integer in range [1, %d]", maxThreads)
			}
			opt.Threads = n
		case "-ts":
			opt.TokenStream = true
		case "-cfg":
			opt.DumpCFG = true
		case "-vb":
			opt.Verbose = true
		case "-module":
			opt.Module = true
		case "-no-fallback":
			opt.NoFallback = true
		default:
			if strings.HasPrefix(args[i], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i])
			}
			opt.Src = args[i]
		}
	}
	return opt, nil
}

func printHelp() {
	fmt.Println(`jsaotc - ahead-of-time compiler for a typed JavaScript function subset

  -o <path>      output file (rewritten source, or "-" for stdout)
  -t <n>         worker threads for CFG lowering
  -ts            print the token stream and exit
  -cfg           print the CFG of every compiled function
  -vb            verbose diagnostics (compiled and skipped functions, fallbacks)
  -module        accepted; has no effect on compilation or output
  -no-fallback   surface compile errors instead of silently falling back`)
}
