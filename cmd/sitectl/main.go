// Точка входа sitectl — управление коллекциями сайта из терминала.
package main

import (
	"context"
	"os"

	"github.com/bigkaa/hydrosite/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background(), cli.NewApp(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
