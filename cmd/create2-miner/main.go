package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/screa/create2-salt-miner/internal/config"
	logpkg "github.com/screa/create2-salt-miner/internal/logger"
	"github.com/screa/create2-salt-miner/internal/metrics"
	minerpkg "github.com/screa/create2-salt-miner/pkg/miner"
	"github.com/screa/create2-salt-miner/pkg/types"
)

var (
	cfg        = config.NewConfig()
	configFile string
	logger     *logpkg.Logger
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "create2-miner",
		Short: "CREATE2 salt brute-forcer",
		Long: `A command line utility for brute-forcing CREATE2 salts.
The salt space is split across parallel workers until a derived contract
address matches the requested pattern under its bitmask.`,
		Run: runMiner,
	}

	rootCmd.Flags().IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")
	rootCmd.Flags().StringVarP(&cfg.Sender, "sender", "d", "", "Deployer address (hex, default zero address)")
	rootCmd.Flags().StringVarP(&cfg.InitCodeHash, "init-code-hash", "H", "", "keccak256 of the contract init code (hex)")
	rootCmd.Flags().StringVarP(&cfg.Bytecode, "bytecode", "B", "", "Contract init code to hash (hex)")
	rootCmd.Flags().StringVarP(&cfg.BytecodeFile, "bytecode-file", "F", "", "File containing contract init code (hex)")
	rootCmd.Flags().StringVar(&cfg.Pattern, "pattern", "", "Target address bit pattern (hex, requires --mask)")
	rootCmd.Flags().StringVar(&cfg.Mask, "mask", "", "Bitmask selecting which address bits must match --pattern")
	rootCmd.Flags().StringVarP(&cfg.Target, "target", "t", "", "Full 40-nibble address target, 'x' nibbles are wildcards")
	rootCmd.Flags().StringVarP(&cfg.Prefix, "prefix", "p", "", "Address prefix to match")
	rootCmd.Flags().StringVarP(&cfg.Suffix, "suffix", "s", "", "Address suffix to match")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().StringVarP(&cfg.LogFile, "log-file", "l", "", "Log file for progress tracking (default: stdout)")
	rootCmd.Flags().IntVarP(&cfg.LogInterval, "log-interval", "i", 5, "Logging interval in seconds (default: 5)")
	rootCmd.Flags().StringVarP(&cfg.MetricsAddr, "metrics-addr", "m", "", "Listen address for Prometheus metrics (disabled if empty)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "TOML config file (flags override)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runMiner(cmd *cobra.Command, args []string) {
	if configFile != "" {
		if err := cfg.LoadFile(configFile, cmd.Flags().Changed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging()

	sender, err := cfg.GetSender()
	if err != nil {
		logger.Fatalf("Invalid sender: %v", err)
	}
	initCodeHash, err := cfg.GetInitCodeHash()
	if err != nil {
		logger.Fatalf("Invalid init code: %v", err)
	}
	pattern, mask, err := cfg.GetPatternMask()
	if err != nil {
		logger.Fatalf("Invalid target: %v", err)
	}

	logger.Printf("Starting CREATE2 salt search with %d workers...", cfg.Workers)
	logger.Printf("Target: %s", cfg.GetTargetDescription())
	logger.Printf("Sender: %s", sender.Hex())
	logger.Printf("Init code hash: %s", initCodeHash.Hex())

	miner := minerpkg.New(minerpkg.Options{
		Workers:      cfg.Workers,
		Sender:       sender,
		InitCodeHash: initCodeHash,
		Pattern:      pattern,
		Mask:         mask,
		Logger:       logger,
		LogInterval:  time.Duration(cfg.LogInterval) * time.Second,
	})

	if cfg.MetricsAddr != "" {
		collector := metrics.New(cfg.Workers, func() float64 { return float64(miner.Attempts()) })
		go func() {
			if err := collector.Serve(cfg.MetricsAddr); err != nil {
				logger.Printf("Metrics server stopped: %v", err)
			}
		}()
		logger.Printf("Serving metrics on %s", cfg.MetricsAddr)
	}

	// Set up signal handling for Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	type outcome struct {
		result types.Result
		err    error
	}
	start := time.Now()
	resultChan := make(chan outcome, 1)
	go func() {
		result, err := miner.Mine()
		resultChan <- outcome{result: result, err: err}
	}()

	// Wait for either completion or signal
	select {
	case out := <-resultChan:
		reportOutcome(miner, out.result, out.err, start)
	case <-sigChan:
		logger.Println("Received interrupt signal. Stopping workers...")
		miner.Stop()
		<-resultChan
		logger.Printf("Search stopped after %d attempts in %v.", miner.Attempts(), time.Since(start))
	}
}

func reportOutcome(miner *minerpkg.Miner, result types.Result, err error, start time.Time) {
	duration := time.Since(start)
	attempts := miner.Attempts()

	if err != nil {
		if errors.Is(err, minerpkg.ErrNotFound) {
			logger.Printf("No match found after %d attempts in %v.", attempts, duration)
			return
		}
		logger.Fatalf("Search failed: %v", err)
	}

	logger.Printf("Found match!")
	logger.Printf("Salt: %s", result.Salt.Hex())
	logger.Printf("Address: %s", result.Address.Hex())
	logger.Printf("Attempts: %d", attempts)
	logger.Printf("Duration: %v", duration)

	// Calculate rate safely
	rate := 0.0
	if duration.Seconds() > 0 {
		rate = float64(attempts) / duration.Seconds()
	}
	logger.Printf("Rate: %.2f hashes/sec", rate)
}

func setupLogging() {
	if cfg.LogFile != "" {
		var err error
		logger, err = logpkg.NewFile(cfg.LogFile, cfg.Verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
	} else {
		logger = logpkg.New(cfg.Verbose)
	}
}
