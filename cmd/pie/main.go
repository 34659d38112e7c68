// Package main estimates pi by parallel importance-sampled Monte Carlo.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	piecmd "github.com/louisbranch/pie/internal/cmd/pie"
	"github.com/louisbranch/pie/internal/platform/config"
)

func main() {
	cfg, err := piecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[PIE] ")

	// A running estimation is never cancelled; the context only carries traces.
	if err := piecmd.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("estimate: %v", err)
	}
}
