// cmd/tools/queue-inspector/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"provider-enrollment/internal/common/config"
	"provider-enrollment/internal/common/database"
	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/services/retryqueue"
)

var configPath string

func main() {
	depthCmd := flag.NewFlagSet("depth", flag.ExitOnError)
	peekCmd := flag.NewFlagSet("peek", flag.ExitOnError)
	deadCmd := flag.NewFlagSet("dead", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{depthCmd, peekCmd, deadCmd} {
		fs.StringVar(&configPath, "config", "", "Path to config file (defaults to configs/config.yaml lookup)")
	}

	peekN := peekCmd.Int("n", 10, "Number of pending entries to show")
	deadN := deadCmd.Int("n", 10, "Number of dead entries to show")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "depth":
		depthCmd.Parse(os.Args[2:])
		err = withQueue(printDepth)

	case "peek":
		peekCmd.Parse(os.Args[2:])
		err = withQueue(func(ctx context.Context, q *retryqueue.RedisQueue) error {
			return printEntries(ctx, q, retryqueue.PendingKey, *peekN)
		})

	case "dead":
		deadCmd.Parse(os.Args[2:])
		err = withQueue(func(ctx context.Context, q *retryqueue.RedisQueue) error {
			return printEntries(ctx, q, retryqueue.DeadKey, *deadN)
		})

	case "help":
		fallthrough
	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func withQueue(fn func(ctx context.Context, q *retryqueue.RedisQueue) error) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx); err != nil {
		return err
	}

	return fn(ctx, retryqueue.NewRedisQueue(rdb.Client, logger.NewNoOpLogger()))
}

func printDepth(ctx context.Context, q *retryqueue.RedisQueue) error {
	depth, err := q.Depth(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("pending:    %d\n", depth.Pending)
	fmt.Printf("processing: %d\n", depth.Processing)
	fmt.Printf("dead:       %d\n", depth.Dead)
	return nil
}

func printEntries(ctx context.Context, q *retryqueue.RedisQueue, list string, n int) error {
	entries, err := q.Peek(ctx, list, n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("%s is empty\n", list)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}

func help() {
	fmt.Println("Usage: queue-inspector <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  depth   Show the length of the pending, processing and dead lists")
	fmt.Println("  peek    Show the oldest pending entries (-n N)")
	fmt.Println("  dead    Show the oldest dead-lettered entries (-n N)")
	fmt.Println("Options:")
	fmt.Println("  -config PATH   Config file to read Redis settings from")
}
