// Package main is the entry point for the community admin CLI.
// It provides roster inspection, account creation, and data seeding
// against the configured storage backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/moddi-tech/community/internal/config"
	"github.com/moddi-tech/community/internal/domain"
	"github.com/moddi-tech/community/internal/kvstore"
	"github.com/moddi-tech/community/internal/kvstore/factory"
	"github.com/moddi-tech/community/internal/store"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Community Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUser(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "seed":
		if err := runSeed(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// openStores loads configuration and builds an account store over the
// configured backend. Seeding is disabled so inspection commands do not
// mutate an empty store.
func openStores(configPath string, seed bool) (*store.AccountStore, kvstore.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	ctx := context.Background()
	kv, err := factory.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	opts := []store.AccountOption{}
	if !seed {
		opts = append(opts, store.WithoutSeed())
	}
	return store.NewAccountStore(ctx, kv, logger, opts...), kv, nil
}

func runUser(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: community-admin user <list|create> [flags]")
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("user list", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		accounts, kv, err := openStores(*configPath, false)
		if err != nil {
			return err
		}
		defer kv.Close()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tVERIFIED\tJOINED")
		for _, u := range accounts.All() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n",
				u.ID, u.Email, u.FullName(), u.Role, u.Verified, u.JoinDate)
		}
		return tw.Flush()

	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		email := fs.String("email", "", "account email (required)")
		password := fs.String("password", "", "account password (required)")
		firstName := fs.String("first-name", "", "first name (required)")
		lastName := fs.String("last-name", "", "last name")
		role := fs.String("role", string(domain.RoleClient), "account role (admin, designer, client, partner)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		accounts, kv, err := openStores(*configPath, false)
		if err != nil {
			return err
		}
		defer kv.Close()

		user, err := accounts.Register(context.Background(), store.RegisterInput{
			Email:     *email,
			Password:  *password,
			FirstName: *firstName,
			LastName:  *lastName,
			Role:      *role,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created user %d (%s)\n", user.ID, user.Email)
		return nil

	default:
		return fmt.Errorf("unknown user command: %s", args[0])
	}
}

// runSeed installs the default roster and feed content into the backend
// for any blob that is absent.
func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	accounts, kv, err := openStores(*configPath, true)
	if err != nil {
		return err
	}
	defer kv.Close()

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	ctx := context.Background()
	for _, category := range domain.Categories {
		feed, err := store.NewFeedStore(ctx, kv, category, accounts, logger)
		if err != nil {
			return err
		}
		fmt.Printf("Feed %s: %d posts\n", category, feed.Count())
	}
	fmt.Printf("Roster: %d users\n", accounts.Count())
	return nil
}

func printUsage() {
	fmt.Println(`Community Admin CLI

Usage:
  community-admin <command> [arguments]

Commands:
  user        Manage users (list, create)
  seed        Install default users and posts into empty storage
  version     Print version information
  help        Show this help message

Examples:
  community-admin user list
  community-admin user create --email admin@example.com --password secret1 --first-name Ada --role admin
  community-admin seed --config ./configs/config.yaml

Use "community-admin <command> --help" for more information about a command.`)
}
