package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"
)

type healthcheckCmd struct {
	port    string
	timeout time.Duration
}

func (*healthcheckCmd) Name() string     { return "healthcheck" }
func (*healthcheckCmd) Synopsis() string { return "probe a running server's /healthz endpoint" }
func (*healthcheckCmd) Usage() string {
	return `toymarket healthcheck [-port <port>]

  Exits 0 when GET /healthz on localhost answers 200, 1 otherwise.
`
}

func (c *healthcheckCmd) SetFlags(f *flag.FlagSet) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	f.StringVar(&c.port, "port", port, "Port of the server to probe.")
	f.DurationVar(&c.timeout, "timeout", 3*time.Second, "Probe timeout.")
}

func (c *healthcheckCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://localhost:%s/healthz", c.port), nil)
	if err != nil {
		return subcommands.ExitFailure
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return subcommands.ExitFailure
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
