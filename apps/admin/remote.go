package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-admin/client"
	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
)

const defaultPageSize = 20

// queryFlags are the list flags shared by list and export.
type queryFlags struct {
	filters  []string
	search   string
	ordering string
}

func (qf *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&qf.filters, "filter", "f", nil, "filter as column=value, column_from=value or column_to=value, may be repeated")
	cmd.Flags().StringVarP(&qf.search, "search", "s", "", "free text search")
	cmd.Flags().StringVarP(&qf.ordering, "ordering", "o", "", "comma separated columns to order by, '-' prefixed for descending order")
}

func (qf *queryFlags) parse() (listing.Filters, []core.DBOrdering, error) {
	pairs, err := parsePairs("filter", qf.filters)
	if err != nil {
		return nil, nil, err
	}
	filters := make(listing.Filters, len(pairs)+1)
	for key, val := range pairs {
		name, bound := rangeBound(key)
		v := filters[name]
		switch bound {
		case rangeFromSuffix:
			v.From = val
		case rangeToSuffix:
			v.To = val
		default:
			v.Eq = val
		}
		filters[name] = v
	}
	if qf.search != "" {
		filters[listing.SearchKey] = listing.Eq(qf.search)
	}
	return filters, core.ParseOrdering(qf.ordering), nil
}

const (
	rangeFromSuffix = "_from"
	rangeToSuffix   = "_to"
)

func rangeBound(key string) (string, string) {
	for _, suffix := range []string{rangeFromSuffix, rangeToSuffix} {
		if n := len(key) - len(suffix); n > 0 && key[n:] == suffix {
			return key[:n], suffix
		}
	}
	return key, ""
}

func (cli *commandLine) loginCmd() *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the API and print the token to pass to --token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if uname == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.readPassword("Enter password:")
			if err != nil {
				return err
			}
			api := cli.remote()
			if err = api.Login(cli.context(), uname, pwd); err != nil {
				return err
			}
			fmt.Fprintln(cli.out, api.Token())
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "username or email, the password is prompted next")
	return cmd
}

func (cli *commandLine) resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources you may manage",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := cli.remote().Resources(cli.context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{info.Name, info.Title})
			}
			printTable(cli.out, []string{"NAME", "TITLE"}, rows)
			return nil
		},
	}
}

func (cli *commandLine) listCmd() *cobra.Command {
	var (
		qf             queryFlags
		page, pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list RESOURCE",
		Short: "List a page of a resource",
		Long: `List a page of a resource.

Example:
  admin list invoices --filter status=overdue --filter due_date_to=2021-06-30 --ordering -amount
  admin list schools --search kin --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, ordering, err := qf.parse()
			if err != nil {
				return err
			}
			ctx := cli.context()
			meta, err := cli.remote().Meta(ctx, args[0])
			if err != nil {
				return err
			}

			coord := listing.NewCoordinator[client.Row](client.NewResource[client.Row](cli.remote(), meta.Name), listing.Options[client.Row]{
				Resource: meta.Name,
				PageSize: pageSize,
				Filters:  filters,
				Ordering: ordering,
				Logger:   cli.logger,
			})
			if err = coord.SetPage(page - 1); err != nil {
				return err
			}
			if _, err = coord.Fetch(ctx); err != nil {
				return err
			}
			printRows(cli.out, meta, coord.Snapshot())
			return nil
		},
	}
	qf.register(cmd)
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", defaultPageSize, "rows per page")
	return cmd
}

// idSelection selects rows by ID, for acting on rows not listed first.
type idSelection struct {
	rows []client.Row
}

func newIDSelection(ids []string) *idSelection {
	sel := new(idSelection)
	for _, id := range ids {
		sel.rows = append(sel.rows, client.Row{"id": id})
	}
	return sel
}

func (s *idSelection) SelectedRows() []client.Row { return s.rows }
func (s *idSelection) ClearSelection()           { s.rows = nil }

// dispatcher returns a dispatcher acting on the selected rows of the resource.
// The coordinator is invalidated after every mutation, i.e. refetched, to report the rows left.
func (cli *commandLine) dispatcher(
	name string,
	sel *idSelection,
	custom map[string]listing.CustomFunc[client.Row],
) (*listing.Dispatcher[client.Row], *listing.Coordinator[client.Row]) {
	res := client.NewResource[client.Row](cli.remote(), name)
	coord := listing.NewCoordinator[client.Row](res, listing.Options[client.Row]{
		Resource: name,
		PageSize: defaultPageSize,
		Logger:   cli.logger,
	})
	d := listing.NewDispatcher[client.Row](res, coord, nil, sel, listing.DispatcherOptions[client.Row]{
		Resource:  name,
		Confirmer: cli,
		Notifier:  cli,
		Custom:    custom,
	})
	return d, coord
}

func (cli *commandLine) reportLeft(coord *listing.Coordinator[client.Row]) {
	snap := coord.Snapshot()
	if snap.Status == listing.StatusReady {
		fmt.Fprintf(cli.out, "%s %s left\n", humanize.Comma(int64(snap.Pagination.TotalCount)), coord.Resource())
	}
}

func (cli *commandLine) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete RESOURCE ID...",
		Short: "Delete rows of a resource",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, coord := cli.dispatcher(args[0], newIDSelection(args[1:]), nil)
			if err := d.Bulk(cli.context(), listing.DeleteAction); err != nil {
				return err
			}
			cli.reportLeft(coord)
			return nil
		},
	}
}

func (cli *commandLine) bulkCmd() *cobra.Command {
	var (
		ids  []string
		sets []string
	)
	cmd := &cobra.Command{
		Use:   "bulk RESOURCE --ids ID,... --set COLUMN=VALUE...",
		Short: "Update rows of a resource at once",
		Long: `Update rows of a resource at once.

Example:
  admin bulk invoices --ids 7f1c,9a2e --set status=cancelled`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parsePairs("set", sets)
			if err != nil {
				return err
			}
			if len(values) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			patch := make(listing.Patch, len(values))
			for k, v := range values {
				patch[k] = v
			}
			d, _ := cli.dispatcher(args[0], newIDSelection(ids), nil)
			return d.Bulk(cli.context(), listing.PatchAction("update", patch))
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "IDs of the rows to update")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "column=value to set, may be repeated")
	return cmd
}

func (cli *commandLine) doCmd() *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "do RESOURCE ACTION ID...",
		Short: "Run a custom action (e.g. remind, assign) on rows of a resource",
		Long: `Run a custom action on rows of a resource.

Example:
  admin do invoices remind 7f1c 9a2e
  admin do tickets assign 3c4d --param assignee=jdoe`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parsePairs("param", params)
			if err != nil {
				return err
			}
			var patch listing.Patch
			if len(values) > 0 {
				patch = make(listing.Patch, len(values))
				for k, v := range values {
					patch[k] = v
				}
			}

			name, action := args[0], args[1]
			res := client.NewResource[client.Row](cli.remote(), name)
			run := func(ctx context.Context, rows []client.Row) (bool, error) {
				var mutated bool
				for _, row := range rows {
					if _, err := res.Do(ctx, action, row.RecordID(), patch); err != nil {
						return mutated, errors.Wrapf(err, "%s %s", action, row.RecordID())
					}
					mutated = true
				}
				return mutated, nil
			}
			custom := map[string]listing.CustomFunc[client.Row]{action: run}
			d, _ := cli.dispatcher(name, newIDSelection(args[2:]), custom)
			return d.Bulk(cli.context(), listing.CustomAction(action))
		},
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "action parameter as key=value, may be repeated")
	return cmd
}

func (cli *commandLine) exportCmd() *cobra.Command {
	var (
		qf     queryFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export RESOURCE",
		Short: "Export the rows of a resource as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, ordering, err := qf.parse()
			if err != nil {
				return err
			}
			data, err := client.NewResource[client.Row](cli.remote(), args[0]).Export(cli.context(), filters, ordering)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cli.out.Write(data)
				return err
			}
			if err = os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(err, "writing export")
			}
			cli.Success(fmt.Sprintf("exported %s to %s (%s)", args[0], output, humanize.Bytes(uint64(len(data)))))
			return nil
		},
	}
	qf.register(cmd)
	cmd.Flags().StringVar(&output, "output", "", "file to write to, stdout by default")
	return cmd
}
