package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	codinggamecmd "github.com/louisbranch/codinggame/internal/cmd/codinggame"
)

func main() {
	cfg, err := codinggamecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[CODINGGAME] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := codinggamecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
