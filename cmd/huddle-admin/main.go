// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// huddle-admin inspects and repairs the meeting room store.
//
// The bot keeps a record of every active room so rooms survive a
// restart. A record whose channels were deleted by hand is skipped at
// startup and reported, but kept; "huddle-admin purge" removes it once
// an operator has confirmed it is dead. The same binary manages the
// verified-user records that decide where transcripts are mailed.
//
// The store is opened directly, so run it against a SQLite store only
// while the bot is stopped or from the same host.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/huddle/lib/codec"
	"github.com/bureau-foundation/huddle/lib/config"
	"github.com/bureau-foundation/huddle/lib/identity"
	"github.com/bureau-foundation/huddle/lib/recordstore"
	"github.com/bureau-foundation/huddle/lib/version"
	"github.com/bureau-foundation/huddle/rooms"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(os.Stderr)
		return errors.New("subcommand required")
	}

	switch args[0] {
	case "list":
		return runList(args[1:], stdout)
	case "purge":
		return runPurge(args[1:], stdout)
	case "users":
		return runUsers(args[1:], stdout)
	case "check":
		return runCheck(args[1:], stdout)
	case "version", "--version":
		version.Print("huddle-admin")
		return nil
	case "-h", "--help", "help":
		printUsage(stdout)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown subcommand: %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: huddle-admin <subcommand> [flags]

Subcommands:
  list                  List stored rooms
  purge NAME...         Delete stored room records
  users set MEMBER      Register a verified user (--shortcode, --email)
  users rm MEMBER       Remove a verified user
  users list            List verified users
  check                 Validate the configuration
  version               Print version information

Every subcommand takes --config (default: $HUDDLE_CONFIG).
`)
}

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	configPath string
	verbose    bool
}

func (c *commonFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.configPath, "config", "", "path to huddle.yaml (default: $HUDDLE_CONFIG)")
	flagSet.BoolVarP(&c.verbose, "verbose", "v", false, "log store activity to stderr")
}

func (c *commonFlags) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *commonFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore loads the configuration and opens its record store.
func (c *commonFlags) openStore(ctx context.Context) (*config.Config, recordstore.Store, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, nil, err
	}
	store, err := recordstore.Open(ctx, recordstore.Options{
		Backend:   cfg.Store.Backend,
		Path:      cfg.Store.Path,
		RedisURL:  cfg.Store.RedisURL,
		KeyPrefix: cfg.Store.KeyPrefix,
		Logger:    c.logger(),
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func parseFlags(name string, args []string, common *commonFlags, extra func(*pflag.FlagSet)) ([]string, error) {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	common.register(flagSet)
	if extra != nil {
		extra(flagSet)
	}
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	return flagSet.Args(), nil
}

func runList(args []string, stdout io.Writer) error {
	var common commonFlags
	if _, err := parseFlags("list", args, &common, nil); err != nil {
		return err
	}
	ctx := context.Background()
	cfg, store, err := common.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ListAll(ctx, cfg.Rooms.Collection)
	if err != nil {
		return fmt.Errorf("listing rooms: %w", err)
	}
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	writer := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(writer, "NAME\tOWNER\tMEMBERS\tVOICE\tTEXT\tROLE\tCREATED")
	for _, name := range names {
		room, err := rooms.DecodeRecord(records[name])
		if err != nil {
			diagnostic, _ := codec.Diagnose(records[name])
			fmt.Fprintf(writer, "%s\t(undecodable: %v)\t\t\t\t\t%s\n", name, err, diagnostic)
			continue
		}
		created := "-"
		if !room.CreatedAt.IsZero() {
			created = room.CreatedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			name, room.OwnerID, len(room.Members), room.VoiceChannel, room.TextChannel, room.Role, created)
	}
	return writer.Flush()
}

func runPurge(args []string, stdout io.Writer) error {
	var common commonFlags
	names, err := parseFlags("purge", args, &common, nil)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("purge: room name required")
	}
	ctx := context.Background()
	cfg, store, err := common.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, name := range names {
		if _, err := store.Get(ctx, cfg.Rooms.Collection, name); err != nil {
			if errors.Is(err, recordstore.ErrNotFound) {
				return fmt.Errorf("purge: no stored room named %q", name)
			}
			return fmt.Errorf("purge: %w", err)
		}
		if err := store.Delete(ctx, cfg.Rooms.Collection, name); err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		fmt.Fprintf(stdout, "purged %s\n", name)
	}
	return nil
}

func runUsers(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errors.New("users: subcommand required (set, rm, list)")
	}
	var common commonFlags
	var user identity.User
	rest, err := parseFlags("users "+args[0], args[1:], &common, func(flagSet *pflag.FlagSet) {
		if args[0] == "set" {
			flagSet.StringVar(&user.Shortcode, "shortcode", "", "organisation login")
			flagSet.StringVar(&user.Email, "email", "", "explicit mail address")
		}
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	cfg, store, err := common.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	directory, err := identity.New(identity.Config{
		Store:      store,
		Collection: cfg.Mail.UsersCollection,
		Domain:     cfg.Mail.Domain,
	})
	if err != nil {
		return err
	}

	switch args[0] {
	case "set":
		if len(rest) != 1 {
			return errors.New("users set: exactly one MEMBER required")
		}
		if err := directory.Register(ctx, rest[0], user); err != nil {
			return err
		}
		address, ok := directory.Address(user)
		if !ok {
			address = "(none: mail.domain is not set)"
		}
		fmt.Fprintf(stdout, "registered %s -> %s\n", rest[0], address)
		return nil
	case "rm":
		if len(rest) != 1 {
			return errors.New("users rm: exactly one MEMBER required")
		}
		if err := directory.Remove(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "removed %s\n", rest[0])
		return nil
	case "list":
		records, err := store.ListAll(ctx, cfg.Mail.UsersCollection)
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}
		members := make([]string, 0, len(records))
		for member := range records {
			members = append(members, member)
		}
		sort.Strings(members)
		writer := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
		fmt.Fprintln(writer, "MEMBER\tSHORTCODE\tADDRESS")
		for _, member := range members {
			var stored identity.User
			if err := codec.Unmarshal(records[member], &stored); err != nil {
				fmt.Fprintf(writer, "%s\t(undecodable)\t\n", member)
				continue
			}
			address, _ := directory.Address(stored)
			fmt.Fprintf(writer, "%s\t%s\t%s\n", member, stored.Shortcode, address)
		}
		return writer.Flush()
	default:
		return fmt.Errorf("users: unknown subcommand %q", args[0])
	}
}

func runCheck(args []string, stdout io.Writer) error {
	var common commonFlags
	if _, err := parseFlags("check", args, &common, nil); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	writer := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "environment\t%s\n", cfg.Environment)
	fmt.Fprintf(writer, "idle timeout\t%s\n", cfg.Rooms.IdleTimeout())
	fmt.Fprintf(writer, "store\t%s\n", cfg.Store.Backend)
	fmt.Fprintf(writer, "events\t%t\n", cfg.Events.NATSURL != "")
	fmt.Fprintf(writer, "log channel\t%t\n", cfg.Rooms.LogChannelID != "")
	return writer.Flush()
}
