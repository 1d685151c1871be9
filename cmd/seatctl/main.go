// Command seatctl is the operator tool for the seat reservation service:
// it provisions events, edits prices, manages reviewers, prints reports
// and mints access tokens for testing.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/seat-reservation/internal/config"
	"github.com/iliyamo/seat-reservation/internal/database"
	"github.com/iliyamo/seat-reservation/internal/middleware"
	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository"
	"github.com/iliyamo/seat-reservation/internal/service"
	"github.com/iliyamo/seat-reservation/internal/utils"
)

const usage = `seatctl manages events, prices and reviewers.

Usage:
  seatctl provision -f events.yaml [--max <price>]
  seatctl price <event_id> <seat_id> <price> [--max <price>]
  seatctl reviewer add <user_id> [--by <user_id>] [--name <username>]
  seatctl reviewer remove <user_id>
  seatctl reviewer list
  seatctl report [--event <id>] [--format yaml|json]
  seatctl token <user_id> [--role CUSTOMER|REVIEWER] [--ttl 1h]

Database settings come from the same DB_* variables as the server and
the price ceiling from SEAT_MAX_PRICE.
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		return pflag.ErrHelp
	}
	cmd, rest := args[0], args[1:]
	if cmd == "token" {
		return runToken(rest, out)
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	switch cmd {
	case "provision":
		return runProvision(ctx, db, rest, out)
	case "price":
		return runPrice(ctx, db, rest, out)
	case "reviewer":
		return runReviewer(ctx, db, rest, out)
	case "report":
		return runReport(ctx, db, rest, out)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func openStore(ctx context.Context) (*sqlx.DB, error) {
	db, err := database.Open(config.LoadDB())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runProvision(ctx context.Context, db *sqlx.DB, args []string, out io.Writer) error {
	fs := newFlags("provision")
	file := fs.StringP("file", "f", "events.yaml", "catalog of events to create")
	maxPrice := fs.Int64("max", config.LoadMaxPrice(), "upper bound for a seat price (default $SEAT_MAX_PRICE)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cat, err := loadCatalog(*file, *maxPrice)
	if err != nil {
		return err
	}
	events := repository.NewEventRepo(db)
	for _, item := range cat.Events {
		ev := item.Event
		err := events.Provision(ctx, &ev, item.RowPrices, item.DefaultPrice)
		switch {
		case errors.Is(err, repository.ErrEventExists):
			fmt.Fprintf(out, "event %d already exists, skipped\n", ev.ID)
		case err != nil:
			return fmt.Errorf("event %d: %w", ev.ID, err)
		default:
			fmt.Fprintf(out, "event %d %q: %d seats\n", ev.ID, ev.Title, ev.Rows*ev.Cols)
		}
	}
	return nil
}

func runPrice(ctx context.Context, db *sqlx.DB, args []string, out io.Writer) error {
	fs := newFlags("price")
	maxPrice := fs.Int64("max", config.LoadMaxPrice(), "upper bound for a seat price (default $SEAT_MAX_PRICE)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return errors.New("usage: seatctl price <event_id> <seat_id> <price>")
	}
	eventID, err := positiveID(fs.Arg(0))
	if err != nil {
		return err
	}
	seatID := strings.ToUpper(fs.Arg(1))
	price, err := strconv.ParseInt(fs.Arg(2), 10, 64)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}

	pool := service.NewWorkerPool(1)
	defer pool.Close()
	res := service.NewReservations(repository.NewSeatRepo(db), repository.NewEventRepo(db), repository.NewPaymentRepo(db), pool)
	res.MaxPrice = *maxPrice
	if err := res.SetPrice(ctx, eventID, seatID, price); err != nil {
		return err
	}
	fmt.Fprintf(out, "event %d seat %s: price %d\n", eventID, seatID, price)
	return nil
}

func runReviewer(ctx context.Context, db *sqlx.DB, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: seatctl reviewer add|remove|list")
	}
	reviewers := repository.NewReviewerRepo(db)
	fs := newFlags("reviewer " + args[0])
	by := fs.Int64("by", 0, "user id recorded as the one who added the reviewer")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		list, err := reviewers.List(ctx)
		if err != nil {
			return err
		}
		for _, r := range list {
			fmt.Fprintf(out, "%d\t%s\tadded by %d at %s\n", r.UserID, r.Username, r.AddedBy, r.AddedAt.Format(time.RFC3339))
		}
		return nil
	case "add", "remove":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: seatctl reviewer %s <user_id>", args[0])
		}
		id, err := positiveID(fs.Arg(0))
		if err != nil {
			return err
		}
		if args[0] == "remove" {
			if err := reviewers.Remove(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "reviewer %d removed\n", id)
			return nil
		}
		addedBy := *by
		if addedBy == 0 {
			addedBy = id
		}
		if err := reviewers.Add(ctx, model.Reviewer{UserID: id, AddedBy: addedBy, Username: *name, AddedAt: time.Now().UTC()}); err != nil {
			return err
		}
		fmt.Fprintf(out, "reviewer %d added\n", id)
		return nil
	}
	return fmt.Errorf("unknown reviewer command %q", args[0])
}

func runReport(ctx context.Context, db *sqlx.DB, args []string, out io.Writer) error {
	fs := newFlags("report")
	eventID := fs.Int64("event", 0, "limit the report to one event")
	format := fs.String("format", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	agg := service.NewAggregator(repository.NewSeatRepo(db), repository.NewEventRepo(db), repository.NewPaymentRepo(db))
	rep, err := agg.Report(ctx, *eventID)
	if err != nil {
		return err
	}
	switch *format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(rep)
	}
	return fmt.Errorf("unknown format %q", *format)
}

func runToken(args []string, out io.Writer) error {
	config.LoadDotEnv()
	fs := newFlags("token")
	role := fs.String("role", middleware.RoleCustomer, "CUSTOMER or REVIEWER")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	secret := fs.String("secret", os.Getenv("JWT_SECRET"), "signing secret (default $JWT_SECRET)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: seatctl token <user_id>")
	}
	id, err := positiveID(fs.Arg(0))
	if err != nil {
		return err
	}
	r := strings.ToUpper(*role)
	if r != middleware.RoleCustomer && r != middleware.RoleReviewer {
		return fmt.Errorf("unknown role %q", *role)
	}
	if *secret == "" {
		return errors.New("no signing secret: set JWT_SECRET or pass --secret")
	}
	tok, err := utils.NewAccessToken(*secret, id, r, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}

func positiveID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", s)
	}
	return n, nil
}
