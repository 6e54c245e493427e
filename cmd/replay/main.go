package main

import (
	"context"
	"flag"
	"fmt"
	"nft-escrow-sol/internal/scenario"
	"nft-escrow-sol/internal/store"
	"nft-escrow-sol/pkg/logger"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	scenarioFile = flag.String("f", "etc/scenario.yaml", "the scenario file")
	dbPath       = flag.String("db", "", "bbolt data file, empty for in-memory accounts")
	logLevel     = flag.String("log", "warn", "log level")
)

func main() {
	flag.Parse()

	if err := logger.Init(logger.LogOption{Level: *logLevel}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Errorf("[Replay] %v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	sc, err := scenario.Load(*scenarioFile)
	if err != nil {
		return err
	}

	var st store.AccountStore = store.NewMemoryStore()
	if *dbPath != "" {
		if st, err = store.NewBoltStore(*dbPath); err != nil {
			return err
		}
	}
	defer st.Close()

	runner, err := scenario.NewRunner(sc, st)
	if err != nil {
		return err
	}
	report, err := runner.Run(context.Background())
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(report)
}
