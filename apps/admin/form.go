package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-admin/client"
	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
)

// page returns the list page of the resource, its dialog creates and edits rows.
func (cli *commandLine) page(meta client.Meta) *listing.Page[client.Row] {
	return listing.NewPage[client.Row](client.NewResource[client.Row](cli.remote(), meta.Name), listing.PageOptions[client.Row]{
		Resource:  meta.Name,
		PageSize:  defaultPageSize,
		Logger:    cli.logger,
		New:       func() client.Row { return client.Row{} },
		Validate:  rowValidator(meta),
		Confirmer: cli,
		Notifier:  cli,
	})
}

func (cli *commandLine) createCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "create RESOURCE --set COLUMN=VALUE...",
		Short: "Create a row of a resource and print its ID",
		Long: `Create a row of a resource and print its ID.

Example:
  admin create schools --set name="Lycee Wima" --set code=WIMA --set status=active`,
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
			ctx := cli.context()
			meta, err := cli.remote().Meta(ctx, args[0])
			if err != nil {
				return err
			}

			p := cli.page(meta)
			if err = p.Dialog.Open(listing.ModeCreate); err != nil {
				return err
			}
			return cli.submit(ctx, meta, p.Dialog, values)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "column=value to set, may be repeated")
	return cmd
}

func (cli *commandLine) editCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "edit RESOURCE ID --set COLUMN=VALUE...",
		Short: "Change columns of a row of a resource",
		Long: `Change columns of a row of a resource, the others keep their value.

Example:
  admin edit schools 7f1c --set city=Bukavu --set email=`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parsePairs("set", sets)
			if err != nil {
				return err
			}
			if len(values) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			ctx := cli.context()
			meta, err := cli.remote().Meta(ctx, args[0])
			if err != nil {
				return err
			}
			row, err := client.NewResource[client.Row](cli.remote(), meta.Name).Get(ctx, args[1])
			if err != nil {
				return err
			}

			p := cli.page(meta)
			if err = p.Dispatcher.Single(ctx, listing.EditAction, row); err != nil {
				return err
			}
			return cli.submit(ctx, meta, p.Dialog, values)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "column=value to set, may be repeated")
	return cmd
}

// submit sets values on the draft of the open dialog then submits it.
func (cli *commandLine) submit(ctx context.Context, meta client.Meta, dialog *listing.Dialog[client.Row], values map[string]string) error {
	var setErr error
	if err := dialog.Edit(func(draft *client.Row) { setErr = setValues(meta, *draft, values) }); err != nil {
		return err
	}
	if setErr != nil {
		return setErr
	}
	saved, err := dialog.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, saved.RecordID())
	return nil
}

// setValues writes values on draft, typed after their column kind.
// Values that do not parse are kept as given, for rowValidator to report.
func setValues(meta client.Meta, draft client.Row, values map[string]string) error {
	for name, s := range values {
		col, ok := meta.Column(name)
		if !ok {
			return errors.Errorf("unknown column %q of %s", name, meta.Name)
		}
		draft[name] = fieldValue(col, s)
	}
	return nil
}

func fieldValue(col resource.ColumnInfo, s string) interface{} {
	if s == "" && col.Nullable {
		return nil
	}
	switch col.Kind {
	case "int":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case "float":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case "bool":
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}

// rowValidator rejects the drafts the API would refuse for their types or enum values.
func rowValidator(meta client.Meta) func(client.Row) error {
	return func(row client.Row) error {
		var flds []core.FieldError
		for _, col := range meta.Columns {
			s, ok := row[col.Name].(string)
			if !ok {
				continue
			}
			switch col.Kind {
			case "int", "float", "bool":
				flds = append(flds, core.FieldError{Field: col.Name, Error: "must be a valid " + col.Kind})
			case "enum":
				if !core.ContainsString(col.Enum, s) {
					flds = append(flds, core.FieldError{Field: col.Name, Error: "must be one of " + strings.Join(col.Enum, ", ")})
				}
			}
		}
		if len(flds) > 0 {
			return core.NewValidationError(nil, flds...)
		}
		return nil
	}
}
