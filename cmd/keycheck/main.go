// Command keycheck verifies provider API keys.
//
//	keycheck openai [key]
//	keycheck assemblyai [key]
//
// Without a key argument the configured api_keys value is used. The exit
// status is 0 for a valid key and 1 otherwise.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kbukum/voxrelay/app"
	"github.com/kbukum/voxrelay/config"
	"github.com/kbukum/voxrelay/keycheck"
	"github.com/kbukum/voxrelay/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("keycheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "path to a YAML config file")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	var checker keycheck.Checker
	fs.StringVar(&checker.OpenAIBaseURL, "openai-base-url", "", "OpenAI API base URL")
	fs.StringVar(&checker.AssemblyAIBaseURL, "assemblyai-base-url", "", "AssemblyAI API base URL")
	fs.DurationVar(&checker.PollInterval, "poll-interval", 0, "AssemblyAI poll interval")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: keycheck [flags] openai|assemblyai [key]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 2
	}

	provider := strings.ToLower(fs.Arg(0))
	key := fs.Arg(1)
	if key == "" {
		var err error
		if key, err = configuredKey(provider, *configFile); err != nil {
			fmt.Fprintf(stderr, "keycheck: %v\n", err)
			return 1
		}
	}

	var res keycheck.Result
	switch provider {
	case "openai":
		res = checker.CheckOpenAI(ctx, key)
	case "assemblyai":
		res = checker.CheckAssemblyAI(ctx, key)
	default:
		fmt.Fprintf(stderr, "keycheck: unknown provider %q\n", provider)
		fs.Usage()
		return 2
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	} else {
		printResult(stdout, res, key)
	}
	if !res.Valid {
		return 1
	}
	return 0
}

func configuredKey(provider, configFile string) (string, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	var cfg app.Config
	if err := config.LoadConfig(app.ServiceName, &cfg, opts...); err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	switch provider {
	case "openai":
		return cfg.APIKeys.OpenAI, nil
	case "assemblyai":
		return cfg.APIKeys.AssemblyAI, nil
	}
	return "", nil
}

func printResult(w io.Writer, res keycheck.Result, key string) {
	verdict := "INVALID"
	if res.Valid {
		verdict = "VALID"
	}
	fmt.Fprintf(w, "%s key %s: %s\n", res.Provider, util.MaskSecret(key, 6), verdict)
	if res.Detail != "" {
		fmt.Fprintf(w, "  %s\n", res.Detail)
	}
	for _, m := range res.Models {
		fmt.Fprintf(w, "  model: %s\n", m)
	}
}
