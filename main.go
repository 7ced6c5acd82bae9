package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rootsploit/arecon/internal/cli"
	"github.com/rootsploit/arecon/internal/exec"
)

// interruptGrace is how long a cancelled run gets to close out its history
// and print the summary before the process exits anyway.
const interruptGrace = 10 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handler to clean up child processes on exit
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\n[!] Received interrupt signal, cleaning up...\n")
		cancel()
		exec.KillAllProcesses()

		// A second signal or a stuck shutdown forces the exit.
		select {
		case <-sigChan:
			fmt.Fprintf(os.Stderr, "[!] Forced exit\n")
		case <-time.After(interruptGrace):
		}
		exec.KillAllProcesses()
		os.Exit(cli.ExitInterrupted)
	}()

	err := cli.Execute(ctx)
	exec.KillAllProcesses()
	code := cli.ExitCode(err)
	if code != 0 && code != cli.ExitInterrupted {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
