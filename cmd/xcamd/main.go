// Command xcamd runs the camera daemon in the foreground. It is the
// standalone counterpart to `xcam daemon`, intended for service managers
// that supervise the process themselves.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"xcam/internal/config"
	"xcam/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	socketPath := flag.String("socket", "", "IPC socket path override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	err = daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:   *logLevel,
		SocketPath: *socketPath,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
