package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/erazemk/fleetdesk/internal/form"
	"github.com/erazemk/fleetdesk/internal/order"
	"github.com/erazemk/fleetdesk/internal/store"
)

func (a *app) cmdDrafts(ctx context.Context, args []string) error {
	flags := a.newFlagSet("drafts", "Usage: fleetdesk drafts\n")
	if err := parse(flags, args, 0); err != nil {
		return err
	}
	database, err := a.drafts()
	if err != nil {
		return err
	}
	drafts, err := store.ListDrafts(ctx, database)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Fprintln(a.out, "No saved drafts.")
		return nil
	}

	tw := a.table()
	fmt.Fprintln(tw, "KEY\tMODE\tORDER\tCLIENT\tTOTAL\tSAVED")
	for _, d := range drafts {
		orderID := "-"
		if d.OrderID != 0 {
			orderID = fmt.Sprint(d.OrderID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", d.Key, d.Mode, orderID, d.ClientID,
			order.Display(d.Total), d.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *app) cmdResume(ctx context.Context, args []string) error {
	flags := a.newFlagSet("resume", "Usage: fleetdesk resume <draft key>\n")
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	key := flags.Arg(0)
	database, err := a.drafts()
	if err != nil {
		return err
	}
	d, err := store.LoadDraft(ctx, database, key, nil)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("no draft %q", key)
	}

	c := form.Resume(a.api, store.Drafts{DB: database}, key, d)
	if err := c.Load(ctx); err != nil {
		return err
	}
	a.printNotices(c)
	return a.submit(ctx, c)
}

func (a *app) cmdDrop(ctx context.Context, args []string) error {
	flags := a.newFlagSet("drop", "Usage: fleetdesk drop <draft key>\n")
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	database, err := a.drafts()
	if err != nil {
		return err
	}
	if err := store.DeleteDraft(ctx, database, flags.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Dropped draft %s.\n", flags.Arg(0))
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
