package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/erazemk/fleetdesk/internal/catalog"
	"github.com/erazemk/fleetdesk/internal/form"
	"github.com/erazemk/fleetdesk/internal/model"
	"github.com/erazemk/fleetdesk/internal/order"
)

func (a *app) cmdOrders(ctx context.Context, args []string) error {
	flags := a.newFlagSet("orders", "Usage: fleetdesk orders\n")
	if err := parse(flags, args, 0); err != nil {
		return err
	}
	orders, err := a.api.ListOrders(ctx)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNUMBER\tCLIENT\tPLATE\tSTATUS\tTOTAL\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.OrderNumber, o.ClientName,
			o.TruckLicensePlate, o.Status, order.Display(o.TotalCost), o.CreatedAt.Local().Format(time.DateOnly))
	}
	return tw.Flush()
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	flags := a.newFlagSet("show", "Usage: fleetdesk show <order id>\n")
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	id, err := strconv.ParseInt(flags.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid order id %q", flags.Arg(0))
	}
	o, err := a.api.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	a.printOrder(o)
	return nil
}

func (a *app) printOrder(o *model.Order) {
	fmt.Fprintf(a.out, "Order %s (id %d), %s\n", o.OrderNumber, o.ID, o.Status)
	fmt.Fprintf(a.out, "Client: %s\n", o.Client.FullName())
	fmt.Fprintf(a.out, "Truck:  %s\n\n", o.Truck.Label())

	tw := a.table()
	fmt.Fprintln(tw, "#\tWORK\tHOURS\tCOST\tNOTE")
	for i, w := range o.Works {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, w.Work.Name, w.DurationHours, order.Display(w.Cost), w.CustomDescription)
	}
	tw.Flush()
	fmt.Fprintf(a.out, "\nTotal: %s\n", order.Display(o.TotalCost))

	for _, p := range []struct{ name, url string }{
		{"Car", o.CarPhoto}, {"Odometer", o.OdometerPhoto}, {"Dashboard", o.DashboardPhoto},
	} {
		if p.url != "" {
			fmt.Fprintf(a.out, "%s photo: %s\n", p.name, p.url)
		}
	}
	for _, r := range o.RepairPhotos {
		fmt.Fprintf(a.out, "Damage: %s (%s)\n", r.Caption, r.Image)
	}
}

func (a *app) cmdQuote(ctx context.Context, args []string) error {
	flags := a.newFlagSet("quote", `Usage: fleetdesk quote <order.json>

Prices the works of an order file against the current catalog. Nothing is
sent to the server.
`)
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	f, err := readOrderFile(flags.Arg(0))
	if err != nil {
		return err
	}
	cats, err := a.api.ListWorkCategories(ctx)
	if err != nil {
		return err
	}
	ix := catalog.Build(cats)

	l := order.NewList(ix)
	if err := f.addLines(l); err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "#\tWORK\tHOURS\tRATE/H\tCOST")
	for i, item := range l.Entries() {
		name := "(unknown work)"
		if w, ok := ix.Work(item.WorkID); ok {
			name = w.Name
		}
		hours := item.Duration.String()
		if item.InvalidDuration != "" {
			hours = item.InvalidDuration + " (invalid)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, name, hours, order.Display(ix.Rate(item.WorkID)), order.Display(item.Cost))
	}
	tw.Flush()
	fmt.Fprintf(a.out, "\nTotal: %s\n", order.Display(l.Total()))
	return nil
}

func (a *app) cmdNew(ctx context.Context, args []string) error {
	flags := a.newFlagSet("new", `Usage: fleetdesk new <order.json>

Creates an order. If the server rejects it, the order is kept as a draft that
"fleetdesk resume" can send again.
`)
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	f, err := readOrderFile(flags.Arg(0))
	if err != nil {
		return err
	}
	drafts, err := a.draftStore()
	if err != nil {
		return err
	}

	c := form.NewCreate(a.api, drafts)
	return a.fillAndSubmit(ctx, c, f)
}

func (a *app) cmdEdit(ctx context.Context, args []string) error {
	flags := a.newFlagSet("edit", `Usage: fleetdesk edit <order id> <changes.json>

Applies the fields present in the file to an existing order. A "works" list
replaces every work line; photos replace their slot; damage photos are added.
`)
	if err := parse(flags, args, 2); err != nil {
		return err
	}
	id, err := strconv.ParseInt(flags.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid order id %q", flags.Arg(0))
	}
	f, err := readOrderFile(flags.Arg(1))
	if err != nil {
		return err
	}
	drafts, err := a.draftStore()
	if err != nil {
		return err
	}

	c := form.NewEdit(a.api, drafts, id)
	return a.fillAndSubmit(ctx, c, f)
}

func (a *app) fillAndSubmit(ctx context.Context, c *form.Controller, f *orderFile) error {
	if err := c.Load(ctx); err != nil {
		return err
	}
	a.printNotices(c)
	if err := f.apply(ctx, c); err != nil {
		return err
	}
	return a.submit(ctx, c)
}

// submit sends the form and reports the outcome.
func (a *app) submit(ctx context.Context, c *form.Controller) error {
	o, err := c.Submit(ctx)
	if err == nil {
		fmt.Fprintf(a.out, "Saved order %s (id %d), total %s.\n", o.OrderNumber, o.ID, order.Display(o.TotalCost))
		return nil
	}

	var v *order.ValidationError
	if errors.As(err, &v) {
		fmt.Fprintln(a.out, "The order is incomplete:")
		for _, fe := range v.Fields {
			fmt.Fprintf(a.out, "  %s: %s\n", fe.Field, fe.Message)
		}
		return errors.New("order not sent")
	}

	if fields := c.FieldErrors(); len(fields) > 0 {
		fmt.Fprintln(a.out, "The server rejected the order:")
		for _, k := range sortedKeys(fields) {
			fmt.Fprintf(a.out, "  %s: %s\n", k, fields[k])
		}
	}
	fmt.Fprintf(a.out, "Draft kept as %s; send it again with: fleetdesk resume %s\n", c.DraftKey(), c.DraftKey())
	return err
}

func (a *app) printNotices(c *form.Controller) {
	for _, n := range c.Notices() {
		fmt.Fprintf(a.out, "warning: %s\n", n.Message)
	}
}
