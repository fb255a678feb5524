// cmd/server/main.go
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/clubhub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logrus.WithError(err).Error("clubhub failed")
		os.Exit(1)
	}
}
