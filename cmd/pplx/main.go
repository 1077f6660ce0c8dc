package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: pplx [flags] <command> [args]

commands:
  analyze FILE...   score each file on its own and print one result per file
  batch FILE...     score all files as one batch
  info              print the loaded model's configuration
  models            list supported model ids

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath  string
	model       string
	maxLength   int
	threshold   float64
	backendURL  string
	dbPath      string
	workspace   string
	metricsAddr string
	workers     int
	set         map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	fs := flag.NewFlagSet("pplx", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.configPath, "config", "", "YAML settings file")
	fs.StringVar(&o.model, "model", "", "model id (kogpt2, gpt2)")
	fs.IntVar(&o.maxLength, "max-length", 0, "maximum tokens per sentence")
	fs.Float64Var(&o.threshold, "threshold", 0, "log-perplexity threshold")
	fs.StringVar(&o.backendURL, "backend", "", "inference server base URL")
	fs.StringVar(&o.dbPath, "db", "", "sqlite path for persisted runs")
	fs.StringVar(&o.workspace, "workspace", "", "workspace directory for settings, reports and logs")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "address for the /metrics listener")
	fs.IntVar(&o.workers, "workers", 0, "documents scored in parallel during batch")
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd, files := rest[0], rest[1:]
	switch cmd {
	case "models":
		return writeJSON(stdout, stderr, modelsOutput())
	case "info", "analyze", "batch":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		return 2
	}
	if (cmd == "analyze" || cmd == "batch") && len(files) == 0 {
		fmt.Fprintf(stderr, "%s needs at least one file\n", cmd)
		return 2
	}

	a, err := setup(ctx, opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "pplx: %v\n", err)
		return 1
	}
	defer a.close()

	switch cmd {
	case "info":
		return writeJSON(stdout, stderr, a.analyzer.ModelInfo())
	case "analyze":
		out, err := a.analyzeFiles(ctx, files)
		if err != nil {
			fmt.Fprintf(stderr, "pplx: %v\n", err)
			return 1
		}
		return writeJSON(stdout, stderr, out)
	default:
		out, err := a.batchFiles(ctx, files)
		if err != nil {
			fmt.Fprintf(stderr, "pplx: %v\n", err)
			return 1
		}
		return writeJSON(stdout, stderr, out)
	}
}
