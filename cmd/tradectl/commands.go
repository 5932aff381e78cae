package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/console"
	"github.com/tradedesk/tradedesk/internal/orders"
)

var (
	_ subcommands.Command = &loginCmd{}
	_ subcommands.Command = &ordersCmd{}
	_ subcommands.Command = &createCmd{}
	_ subcommands.Command = &editCmd{}
	_ subcommands.Command = &moveCmd{}
	_ subcommands.Command = &exportCmd{}
	_ subcommands.Command = &statsCmd{}
)

// =============================================================================
// login
// =============================================================================

type loginCmd struct {
	*app
	user, pass string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "sign in and print a token" }
func (*loginCmd) Usage() string    { return "login -u USER -p PASSWORD\n" }

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "username")
	f.StringVar(&c.pass, "p", "", "password")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	s, err := c.api.Login(ctx, c.user, c.pass)
	if err != nil {
		return c.exit(errors.New(console.ErrorMessage(err)))
	}
	fmt.Fprintf(c.out, "signed in as %s (%s)\n", s.User.Name, s.User.Role)
	fmt.Fprintf(c.out, "export TRADECTL_TOKEN=%s\n", s.Token)
	return subcommands.ExitSuccess
}

// =============================================================================
// orders
// =============================================================================

type ordersCmd struct {
	*app
	filter filterFlags
}

func (*ordersCmd) Name() string     { return "orders" }
func (*ordersCmd) Synopsis() string { return "list orders" }
func (*ordersCmd) Usage() string {
	return "orders [-search S] [-status S] [-type T] [-month M] [-year Y]\n"
}

func (c *ordersCmd) SetFlags(f *flag.FlagSet) { c.filter.register(f) }

func (c *ordersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.exit(c.list(ctx))
}

func (c *ordersCmd) list(ctx context.Context) error {
	f, err := c.filter.filter()
	if err != nil {
		return err
	}
	p, err := c.page(ctx)
	if err != nil {
		return err
	}
	if err := p.SetFilter(ctx, f); err != nil {
		return c.report(p.Notices(), err)
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCUSTOMER\tTOTAL\tSTATUS\tCREATED BY")
	for _, o := range p.Orders() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.CreatedAt.Format("2006-01-02"), orders.Label(string(o.Type)), o.Customer.Name,
			o.Total().StringFixed(2), orders.Label(string(o.Status)), o.CreatorLabel())
	}
	return tw.Flush()
}

// =============================================================================
// create / edit
// =============================================================================

type createCmd struct {
	*app
	typ, customer, cargo string
	items                lineFlag
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create an order" }
func (*createCmd) Usage() string {
	return "create -type T -customer ID [-cargo ID] -item ID:QTY ...\n"
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.typ, "type", string(orders.TypeSell), "sell order | purchase order")
	f.StringVar(&c.customer, "customer", "", "customer id")
	f.StringVar(&c.cargo, "cargo", "", "cargo id")
	f.Var(&c.items, "item", "item id:quantity, repeatable")
}

func (c *createCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.exit(c.create(ctx))
}

func (c *createCmd) create(ctx context.Context) error {
	lines, err := parseLines(c.items)
	if err != nil {
		return err
	}
	p, err := c.page(ctx)
	if err != nil {
		return err
	}
	if err := p.LoadRelated(ctx); err != nil {
		return c.report(p.Notices(), err)
	}
	e := p.NewOrder(orders.Type(c.typ))
	if err := fill(e, c.customer, c.cargo, lines); err != nil {
		return err
	}
	o, err := e.Submit(ctx)
	if err := c.report(p.Notices(), err); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s total %s\n", o.ID, o.Total().StringFixed(2))
	return nil
}

type editCmd struct {
	*app
	id, customer, cargo string
	items               lineFlag
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "replace an order's customer, cargo or items" }
func (*editCmd) Usage() string {
	return "edit -id ID [-customer ID] [-cargo ID] -item ID:QTY ...\n"
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "order id")
	f.StringVar(&c.customer, "customer", "", "customer id")
	f.StringVar(&c.cargo, "cargo", "", "cargo id")
	f.Var(&c.items, "item", "item id:quantity, repeatable")
}

func (c *editCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.exit(c.edit(ctx))
}

func (c *editCmd) edit(ctx context.Context) error {
	id, err := uuid.Parse(c.id)
	if err != nil {
		return fmt.Errorf("bad id %q", c.id)
	}
	lines, err := parseLines(c.items)
	if err != nil {
		return err
	}
	p, err := c.page(ctx)
	if err != nil {
		return err
	}
	if err := p.LoadRelated(ctx); err != nil {
		return c.report(p.Notices(), err)
	}
	existing, err := c.api.GetOrder(ctx, id)
	if err != nil {
		return errors.New(console.ErrorMessage(err))
	}
	e := p.EditOrder(existing)
	if err := fill(e, c.customer, c.cargo, lines); err != nil {
		return err
	}
	_, err = e.Submit(ctx)
	return c.report(p.Notices(), err)
}

// =============================================================================
// advance / delete
// =============================================================================

// moveCmd is a confirmation-gated action on one order: "advance" moves it
// to its next status, "delete" removes it.
type moveCmd struct {
	*app
	name string
	id   string
	yes  bool
}

func (c *moveCmd) Name() string { return c.name }

func (c *moveCmd) Synopsis() string {
	if c.name == "delete" {
		return "delete an order"
	}
	return "move an order to its next status"
}

func (c *moveCmd) Usage() string { return c.name + " -id ID [-yes]\n" }

func (c *moveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "order id")
	f.BoolVar(&c.yes, "yes", false, "skip confirmation")
}

func (c *moveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.exit(c.move(ctx))
}

func (c *moveCmd) move(ctx context.Context) error {
	id, err := uuid.Parse(c.id)
	if err != nil {
		return fmt.Errorf("bad id %q", c.id)
	}
	p, err := c.page(ctx)
	if err != nil {
		return err
	}
	o, err := c.api.GetOrder(ctx, id)
	if err != nil {
		return errors.New(console.ErrorMessage(err))
	}

	var confirmation *console.Confirmation
	if c.name == "delete" {
		confirmation = p.RequestDelete(o)
	} else {
		var ok bool
		if confirmation, ok = p.RequestTransition(o); !ok {
			fmt.Fprintf(c.out, "order is %s, no further status\n", o.Status)
			return nil
		}
	}
	if !c.confirm(confirmation, c.yes) {
		confirmation.Cancel()
		fmt.Fprintln(c.out, "cancelled")
		return nil
	}
	return c.report(p.Notices(), confirmation.Confirm(ctx))
}

// =============================================================================
// export / stats
// =============================================================================

type exportCmd struct {
	*app
	filter  filterFlags
	format  string
	outPath string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "download the filtered order list" }
func (*exportCmd) Usage() string {
	return "export [-format xlsx|csv|pdf] [-o FILE] [filters]\n"
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.filter.register(f)
	f.StringVar(&c.format, "format", orders.FormatXLSX, "xlsx | csv | pdf")
	f.StringVar(&c.outPath, "o", "", "output file, defaults to the export name")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.exit(c.export(ctx))
}

func (c *exportCmd) export(ctx context.Context) error {
	f, err := c.filter.filter()
	if err != nil {
		return err
	}
	p, err := c.page(ctx)
	if err != nil {
		return err
	}
	if err := p.SetFilter(ctx, f); err != nil {
		return c.report(p.Notices(), err)
	}
	file, ok := p.Export(ctx, c.format)
	if !ok {
		return c.report(p.Notices(), nil)
	}
	path := c.outPath
	if path == "" {
		path = file.Name
	}
	if err := os.WriteFile(path, file.Body, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %s (%d bytes)\n", path, len(file.Body))
	return nil
}

type statsCmd struct {
	*app
}

func (*statsCmd) Name() string           { return "stats" }
func (*statsCmd) Synopsis() string       { return "show the dashboard counts and trend" }
func (*statsCmd) Usage() string          { return "stats\n" }
func (*statsCmd) SetFlags(*flag.FlagSet) {}

func (c *statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	d := console.NewDashboard(c.api)
	if err := d.Load(ctx); err != nil {
		return c.exit(c.report(d.Notices(), err))
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, card := range d.Cards() {
		fmt.Fprintf(tw, "%s\t%d\n", card.Label, card.Value)
	}
	stats, _ := d.Stats()
	fmt.Fprintln(tw, "\nMONTH\tORDERS\tDELIVERED")
	for _, t := range stats.Trends {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", t.Month, t.Orders, t.Delivered)
	}
	return c.exit(tw.Flush())
}
