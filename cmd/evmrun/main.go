// Command evmrun executes EVM bytecode against an in-memory Host, driving
// the suspend/resume loop to completion and printing the result. Analogous
// to go-ethereum's "evm run" subcommand.
package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/vmcore/suspendvm/core/vm/runtime"
	"github.com/vmcore/suspendvm/log"
	"github.com/vmcore/suspendvm/params"
)

func main() {
	app := &cli.App{
		Name:  "evmrun",
		Usage: "run EVM bytecode against an in-memory state host",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "code",
				Usage:    "hex-encoded bytecode to execute",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "input",
				Usage: "hex-encoded calldata",
			},
			&cli.Uint64Flag{
				Name:  "gas",
				Usage: "gas limit",
				Value: 10_000_000,
			},
			&cli.StringFlag{
				Name:  "hardfork",
				Usage: "Frontier|Homestead|Byzantium|Constantinople|Istanbul|Berlin|London|Merge|Shanghai|Cancun",
				Value: "Cancun",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug-level logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("error: "), err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		log.SetRoot(log.New(os.Stderr, slog.LevelDebug))
	}

	code, err := decodeHex(c.String("code"))
	if err != nil {
		return fmt.Errorf("decoding --code: %w", err)
	}
	input, err := decodeHex(c.String("input"))
	if err != nil {
		return fmt.Errorf("decoding --input: %w", err)
	}

	hf, err := parseHardfork(c.String("hardfork"))
	if err != nil {
		return err
	}

	host := runtime.NewTestHost()
	cfg := &runtime.Config{
		ChainConfig: &params.ChainConfig{Hardfork: hf},
		GasLimit:    c.Uint64("gas"),
		State:       host,
	}

	log.Info("executing", "codeLen", len(code), "gas", cfg.GasLimit, "hardfork", hf)
	ret, leftover, err := runtime.Execute(code, input, cfg)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	used := cfg.GasLimit - leftover
	fmt.Printf("%s %s\n", color.GreenString("return:"), hexOf(ret))
	fmt.Printf("%s %d\n", color.CyanString("gas used:"), used)
	fmt.Printf("%s %d\n", color.CyanString("gas left:"), leftover)
	return nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func hexOf(b []byte) string {
	if len(b) == 0 {
		return "0x"
	}
	return "0x" + hex.EncodeToString(b)
}

func parseHardfork(s string) (params.Hardfork, error) {
	names := map[string]params.Hardfork{
		"Frontier":       params.Frontier,
		"Homestead":      params.Homestead,
		"Byzantium":      params.Byzantium,
		"Constantinople": params.Constantinople,
		"Istanbul":       params.Istanbul,
		"Berlin":         params.Berlin,
		"London":         params.London,
		"Merge":          params.Merge,
		"Shanghai":       params.Shanghai,
		"Cancun":         params.Cancun,
	}
	hf, ok := names[s]
	if !ok {
		return 0, fmt.Errorf("unknown hardfork %q", s)
	}
	return hf, nil
}
