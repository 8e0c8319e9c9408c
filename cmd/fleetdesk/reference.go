package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/model"
)

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func (a *app) cmdClients(ctx context.Context, args []string) error {
	flags := a.newFlagSet("clients", "Usage: fleetdesk clients\n")
	if err := parse(flags, args, 0); err != nil {
		return err
	}
	clients, err := a.api.ListClients(ctx)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tEMAIL")
	for _, c := range clients {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.FullName(), c.Phone, c.Email)
	}
	return tw.Flush()
}

func (a *app) cmdTrucks(ctx context.Context, args []string) error {
	flags := a.newFlagSet("trucks", `Usage: fleetdesk trucks -client <id>

Flags:
  -c, -client <id>   client whose trucks to list
`)
	var clientID int64
	flags.Int64Var(&clientID, "client", 0, "")
	flags.Int64Var(&clientID, "c", 0, "")
	if err := parse(flags, args, 0); err != nil {
		return err
	}
	if clientID <= 0 {
		flags.Usage()
		return errors.New("trucks: -client is required")
	}
	trucks, err := a.api.ListTrucks(ctx, clientID)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tMODEL\tPLATE\tVIN")
	for _, t := range trucks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Model, t.LicensePlate, t.VINCode)
	}
	return tw.Flush()
}

func (a *app) cmdCatalog(ctx context.Context, args []string) error {
	flags := a.newFlagSet("catalog", "Usage: fleetdesk catalog\n")
	if err := parse(flags, args, 0); err != nil {
		return err
	}
	cats, err := a.api.ListWorkCategories(ctx)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "WORK\tNAME\tCATEGORY\tRATE/H")
	for _, c := range cats {
		for _, w := range c.Works {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", w.ID, w.Name, c.Name, c.HourlyRate.StringFixed(2))
		}
	}
	return tw.Flush()
}

// seedFile is the input of fleetdesk seed.
type seedFile struct {
	Clients []struct {
		model.Client
		Trucks []model.Truck `json:"trucks"`
	} `json:"clients"`
	WorkCategories []struct {
		Name       string          `json:"name"`
		HourlyRate decimal.Decimal `json:"price_per_hour"`
		Works      []string        `json:"works"`
	} `json:"work_categories"`
}

func (a *app) cmdSeed(ctx context.Context, args []string) error {
	flags := a.newFlagSet("seed", `Usage: fleetdesk seed <file.json>

Creates the clients (with their trucks) and work categories listed in the
file. Needs a manager account.
`)
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	data, err := os.ReadFile(flags.Arg(0))
	if err != nil {
		return err
	}
	var f seedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing %s: %w", flags.Arg(0), err)
	}

	var trucks int
	for _, c := range f.Clients {
		created, err := a.api.CreateClient(ctx, c.Client)
		if err != nil {
			return err
		}
		for _, t := range c.Trucks {
			t.ClientID = created.ID
			if _, err := a.api.CreateTruck(ctx, t); err != nil {
				return err
			}
			trucks++
		}
	}
	var works int
	for _, wc := range f.WorkCategories {
		cat := model.WorkCategory{Name: wc.Name, HourlyRate: wc.HourlyRate}
		for _, name := range wc.Works {
			cat.Works = append(cat.Works, model.WorkItem{Name: name})
		}
		if _, err := a.api.CreateWorkCategory(ctx, cat); err != nil {
			return err
		}
		works += len(cat.Works)
	}

	fmt.Fprintf(a.out, "Created %d clients, %d trucks, %d work categories with %d works.\n",
		len(f.Clients), trucks, len(f.WorkCategories), works)
	return nil
}
