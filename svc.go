package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/TxnLab/gemfarm/internal/lib/misc"
)

func GetDaemonCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "daemon",
		Aliases: []string{"d"},
		Usage:   "Run the farm API, metrics and vault reconciliation as a daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "Address the farm API and /metrics are served on",
				Value:   ":6260",
				Sources: cli.EnvVars("GEMFARM_LISTEN"),
			},
			&cli.UintFlag{
				Name:    "refresh",
				Usage:   "Minutes between stats refreshes and vault reconciliation",
				Value:   5,
				Sources: cli.EnvVars("GEMFARM_REFRESH_MINUTES"),
			},
		},
		Action: runAsDaemon,
	}
}

func runAsDaemon(ctx context.Context, command *cli.Command) error {
	var wg sync.WaitGroup

	// Create channel used by both the signal handler and server goroutines
	// to notify the main goroutine when to stop the server.
	errc := make(chan error)

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	ctx, cancel := context.WithCancel(context.Background())

	newDaemon(command.Value("listen").(string), int(command.Value("refresh").(uint64))).start(ctx, &wg)

	misc.Infof(App.logger, "exiting (%v)", <-errc) // wait for termination signal

	// Send cancellation signal to the goroutines.
	cancel()
	misc.Infof(App.logger, "waiting on background tasks..")
	wg.Wait()

	misc.Infof(App.logger, "exited")
	return nil
}
