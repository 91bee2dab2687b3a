// Command admin manages a Masomo Admin deployment: database migrations and users locally,
// resource lists remotely through the API.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/masomo-admin/core"
	logsvc "github.com/trezcool/masomo-admin/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	cli := newCommandLine(conf, logger, os.Stdin, os.Stdout)
	err := cli.run(os.Args)
	cli.close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}
