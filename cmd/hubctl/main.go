package main

import (
	"context"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.New(afero.NewOsFs(), os.Stdout).Execute(ctx, os.Args[1:]); err != nil {
		log.Errorf("%s", err)
		stop()
		os.Exit(1)
	}
}
