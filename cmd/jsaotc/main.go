// jsaotc reads a typed JavaScript function subset, compiles every function
// whose parameters and return type are annotated down to native code, and
// writes the rewritten source (compiled declarations replaced by aliases
// into the native stubs) alongside the compiled object file. Functions that
// cannot be compiled, or the whole file if compilation fails outright, fall
// back unchanged to run under the bundled interpreter.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"jsaot/internal/frontend"
	"jsaot/internal/host"
	"jsaot/internal/util"
)

func main() {
	cmd := &cli.Command{
		Name:      "jsaotc",
		Usage:     "ahead-of-time compiler for a typed JavaScript function subset",
		ArgsUsage: "[source]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "o", Usage: "output file for the rewritten source (- for stdout)"},
			&cli.IntFlag{Name: "t", Value: 1, Usage: "worker threads for CFG lowering"},
			&cli.BoolFlag{Name: "ts", Usage: "print the token stream and exit"},
			&cli.BoolFlag{Name: "cfg", Usage: "print the CFG of every compiled function"},
			&cli.BoolFlag{Name: "vb", Usage: "verbose diagnostics"},
			&cli.BoolFlag{Name: "module", Usage: "accepted; has no effect on compilation or output"},
			&cli.BoolFlag{Name: "no-fallback", Usage: "surface compile errors instead of falling back to the interpreter"},
		},
		Action: runAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "jsaotc: %s\n", err)
		os.Exit(1)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	opt := util.Options{
		Out:        cmd.String("o"),
		Threads:    int(cmd.Int("t")),
		TokenStream: cmd.Bool("ts"),
		DumpCFG:    cmd.Bool("cfg"),
		Verbose:    cmd.Bool("vb"),
		Module:     cmd.Bool("module"),
		NoFallback: cmd.Bool("no-fallback"),
	}
	if cmd.Args().Len() > 0 {
		opt.Src = cmd.Args().First()
	}
	return run(opt)
}

// run reads source, executes the requested stage, and writes results.
// Behaviour is controlled entirely by opt, one stage call at a time.
func run(opt util.Options) error {
	src, err := util.ReadSource(opt, os.Stdin)
	if err != nil {
		return fmt.Errorf("could not read source: %w", err)
	}

	if opt.TokenStream {
		return printTokenStream(src)
	}

	out, err := util.OpenOutput(opt)
	if err != nil {
		return fmt.Errorf("could not open output: %w", err)
	}
	defer out.Close()

	res, err := host.Compile(opt, src)
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	if opt.Verbose {
		for _, name := range res.Compiled {
			fmt.Fprintf(os.Stderr, "jsaotc: compiled %s\n", name)
		}
		for _, s := range res.Skipped {
			if s.Function == "" {
				fmt.Fprintf(os.Stderr, "jsaotc: %s\n", s.Reason)
				continue
			}
			fmt.Fprintf(os.Stderr, "jsaotc: skipped %s: %s\n", s.Function, s.Reason)
		}
		if res.Object == nil {
			fmt.Fprintln(os.Stderr, "jsaotc: no functions compiled, falling back to interpreter")
		}
	}

	if _, err := out.Write([]byte(res.Source)); err != nil {
		return fmt.Errorf("writing rewritten source: %w", err)
	}

	if len(res.Object) > 0 && len(opt.Out) > 0 && opt.Out != "-" {
		objPath := opt.Out + ".o"
		if err := os.WriteFile(objPath, res.Object, 0644); err != nil {
			return fmt.Errorf("writing native object: %w", err)
		}
	}
	return nil
}

// printTokenStream lexes src and prints one token per line, for the -ts
// diagnostic flag.
func printTokenStream(src string) error {
	tokens, diags := frontend.Tokenize(src)
	for _, t := range tokens {
		fmt.Printf("%-14s %q\n", t.Kind, t.Text)
	}
	if len(diags) > 0 {
		return fmt.Errorf("lexical errors: %s", strings.Join(diags, "; "))
	}
	return nil
}
