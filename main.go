package main

import (
	"context"
	"os"

	"github.com/m-mizutani/dsfetch/pkg/cli"
	"github.com/m-mizutani/dsfetch/pkg/domain/model"
)

func main() {
	if err := cli.Run(context.Background(), os.Args); err != nil {
		os.Exit(model.ExitCodeOf(err))
	}
}
