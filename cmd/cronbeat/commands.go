package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cronbeat/cronbeat"
	"github.com/cronbeat/cronbeat/pkg/client"
)

const defaultAPIUrl = "http://127.0.0.1:8080/api"

type command struct{}

// apiClient builds a client for the daemon, defaulting to the local address.
func (c command) apiClient(apiURL string, timeout time.Duration) *client.Client {
	if apiURL == "" {
		apiURL = defaultAPIUrl
	}
	return client.New(client.Config{BaseURL: apiURL, Timeout: timeout})
}

// Start signals a run start via the daemon API
func (c command) Start(f SignalFlags) error {
	api := c.apiClient(f.APIUrl, f.APITimeout)
	ctx := context.Background()
	if !api.IsReachable(ctx) {
		return fmt.Errorf("daemon not reachable - please start it first with 'cronbeat serve'")
	}
	return api.Start(ctx, client.StartRequest{TaskID: f.TaskID, Description: f.Description})
}

// Complete signals a run completion via the daemon API and prints the verdict
func (c command) Complete(f SignalFlags) error {
	api := c.apiClient(f.APIUrl, f.APITimeout)
	ctx := context.Background()
	res, err := api.Complete(ctx, client.CompleteRequest{TaskID: f.TaskID})
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

// Status prints the monitoring view of one or all tasks
func (c command) Status(f StatusFlags) error {
	api := c.apiClient(f.APIUrl, f.APITimeout)
	ctx := context.Background()
	if f.TaskID == "" {
		all, err := api.StatusAll(ctx)
		if err != nil {
			return err
		}
		printJSON(all)
		return nil
	}
	st, err := api.Status(ctx, f.TaskID)
	if err != nil {
		return err
	}
	printJSON(st)
	return nil
}

// Validate loads the config and reports the declared tasks without serving
func (c command) Validate(path string) error {
	if path == "" {
		return fmt.Errorf("config file required. Use --config=cronbeat.toml or provide as argument")
	}
	cfg, err := cronbeat.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d task(s) declared, timezone %s\n", path, reg.Len(), cfg.Location())
	for _, name := range reg.Names() {
		entry, _ := reg.Lookup(name)
		fmt.Printf("  %-24s frequency=%v threshold=%v\n", name, entry.Frequency, entry.RuntimeThreshold)
	}
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
