// Command tradectl drives the TradeDesk console from a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tradedesk/tradedesk/internal/client"
	"github.com/tradedesk/tradedesk/internal/console"
	"github.com/tradedesk/tradedesk/internal/orders"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app is the state shared by every subcommand.
type app struct {
	api  *client.Client
	in   *bufio.Reader
	out  io.Writer
	errw io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	top := flag.NewFlagSet("tradectl", flag.ContinueOnError)
	top.SetOutput(stderr)
	apiURL := top.String("api", envOr("TRADECTL_API", "http://localhost:8080"), "API root")
	token := top.String("token", os.Getenv("TRADECTL_TOKEN"), "bearer token")

	cdr := subcommands.NewCommander(top, "tradectl")
	cdr.Output = stdout
	cdr.Error = stderr
	if err := top.Parse(args); err != nil {
		return int(subcommands.ExitUsageError)
	}

	a := &app{
		api:  client.New(*apiURL).WithSession(client.Session{Token: *token}),
		in:   bufio.NewReader(stdin),
		out:  stdout,
		errw: stderr,
	}
	cdr.Register(cdr.HelpCommand(), "help")
	cdr.Register(cdr.FlagsCommand(), "help")
	cdr.Register(cdr.CommandsCommand(), "help")
	cdr.Register(&loginCmd{app: a}, "session")
	for _, cmd := range []subcommands.Command{
		&ordersCmd{app: a},
		&createCmd{app: a},
		&editCmd{app: a},
		&moveCmd{app: a, name: "advance"},
		&moveCmd{app: a, name: "delete"},
		&exportCmd{app: a},
		&statsCmd{app: a},
	} {
		cdr.Register(cmd, "orders")
	}
	return int(cdr.Execute(ctx))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// exit prints err and maps it onto an exit status.
func (a *app) exit(err error) subcommands.ExitStatus {
	if err == nil {
		return subcommands.ExitSuccess
	}
	fmt.Fprintln(a.errw, "error:", err)
	return subcommands.ExitFailure
}

// report prints the notices a console action raised and turns an error
// notice into the command error.
func (a *app) report(notices []console.Notice, err error) error {
	for _, n := range notices {
		fmt.Fprintf(a.out, "[%s] %s: %s\n", n.Level, n.Title, n.Message)
	}
	if err != nil && len(notices) > 0 {
		return errors.New("command failed")
	}
	return err
}

func (a *app) page(ctx context.Context) (*console.OrdersPage, error) {
	me, err := a.api.Me(ctx)
	if err != nil {
		return nil, errors.New(console.ErrorMessage(err))
	}
	session := a.api.Session()
	session.User = me
	return console.NewOrdersPage(a.api.WithSession(session), session), nil
}

func (a *app) confirm(c *console.Confirmation, yes bool) bool {
	if yes {
		return true
	}
	fmt.Fprintf(a.out, "%s: %s [y/N] ", c.Title, c.Message)
	answer, _ := a.in.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// filterFlags holds the list filter options shared by orders and export.
type filterFlags struct {
	search, status, typ string
	month, year         int
}

func (ff *filterFlags) register(f *flag.FlagSet) {
	f.StringVar(&ff.search, "search", "", "customer name or order id")
	f.StringVar(&ff.status, "status", "", "order status")
	f.StringVar(&ff.typ, "type", "", "order type")
	f.IntVar(&ff.month, "month", 0, "month 1-12")
	f.IntVar(&ff.year, "year", time.Now().Year(), "year, 0 for all years")
}

func (ff *filterFlags) filter() (orders.Filter, error) {
	f := orders.Filter{Search: ff.search, Status: orders.Status(ff.status), Type: orders.Type(ff.typ), Month: ff.month, Year: ff.year}
	if f.Status != "" && !f.Status.Valid() {
		return f, fmt.Errorf("unknown status %q", ff.status)
	}
	return f, nil
}

// lineFlag collects repeated -item ID:QTY values.
type lineFlag []string

func (l *lineFlag) String() string     { return strings.Join(*l, ",") }
func (l *lineFlag) Set(v string) error { *l = append(*l, v); return nil }

type lineSpec struct {
	item     uuid.UUID
	quantity string
}

func parseLines(raw []string) ([]lineSpec, error) {
	out := make([]lineSpec, 0, len(raw))
	for _, r := range raw {
		id, qty, found := strings.Cut(r, ":")
		if !found {
			qty = "1"
		}
		itemID, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("bad item %q", r)
		}
		out = append(out, lineSpec{item: itemID, quantity: qty})
	}
	return out, nil
}

func parseOptionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("bad id %q", raw)
	}
	return &id, nil
}

// fill applies the command line to the editor's draft, going through the
// same add/quantity steps as the form.
func fill(e *console.Editor, customer, cargo string, lines []lineSpec) error {
	if customer != "" {
		id, err := uuid.Parse(customer)
		if err != nil {
			return fmt.Errorf("bad customer %q", customer)
		}
		e.Draft.Customer = id
	}
	if cargo != "" {
		id, err := parseOptionalID(cargo)
		if err != nil {
			return err
		}
		e.Draft.Cargo = id
	}
	if len(lines) > 0 {
		for _, l := range e.Draft.Lines() {
			e.Draft.Remove(l.ItemID)
		}
	}
	for _, l := range lines {
		e.AddItem(l.item)
		e.Draft.SetQuantity(l.item, l.quantity)
	}
	return nil
}
