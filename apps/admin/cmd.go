package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/masomo-admin/client"
	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/tenant"
	"github.com/trezcool/masomo-admin/core/user"
	"github.com/trezcool/masomo-admin/storage/database"
	sqlxrepos "github.com/trezcool/masomo-admin/storage/database/sqlx"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	openDBFunc       = database.Open     // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	in     *bufio.Reader
	out    io.Writer

	db      *sqlx.DB
	usrRepo user.Repository
	api     *client.Client

	// persistent flags
	apiURL   string
	token    string
	tenantID string
	yes      bool
}

func newCommandLine(conf *core.Config, logger core.Logger, in io.Reader, out io.Writer) *commandLine {
	return &commandLine{
		conf:   conf,
		logger: logger,
		in:     bufio.NewReader(in),
		out:    out,
	}
}

// run executes the command line, args[0] being the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args[1:])
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	return root.Execute()
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Masomo Admin management commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cli.apiURL, "api", cli.conf.APIBaseURL, "base URL of the Masomo Admin API")
	flags.StringVar(&cli.token, "token", "", "API token, as printed by the login command")
	flags.StringVar(&cli.tenantID, "tenant", "", "tenant (school group) to work on")
	flags.BoolVarP(&cli.yes, "yes", "y", false, "do not ask for confirmation")

	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.loginCmd(),
		cli.resourcesCmd(),
		cli.listCmd(),
		cli.createCmd(),
		cli.editCmd(),
		cli.deleteCmd(),
		cli.bulkCmd(),
		cli.doCmd(),
		cli.exportCmd(),
	)
	return root
}

func (cli *commandLine) close() {
	if cli.db != nil {
		if err := cli.db.Close(); err != nil {
			cli.logger.Error("Failed to close DB", err)
		}
	}
}

// database opens the database on first use.
func (cli *commandLine) database(ctx context.Context) (*sqlx.DB, error) {
	if cli.db == nil {
		db, err := openDBFunc(ctx, cli.conf)
		if err != nil {
			return nil, err
		}
		cli.db = db
		cli.usrRepo = sqlxrepos.NewUserRepository(db)
	}
	return cli.db, nil
}

// remote returns the API client, authenticated with the --token flag.
func (cli *commandLine) remote() *client.Client {
	if cli.api == nil {
		cli.api = client.New(cli.apiURL, nil)
	}
	if cli.token != "" {
		cli.api.SetToken(cli.token)
	}
	return cli.api
}

// context returns a context scoped to the --tenant flag, if set.
func (cli *commandLine) context() context.Context {
	ctx := context.Background()
	if cli.tenantID != "" {
		ctx = tenant.With(ctx, cli.tenantID)
	}
	return ctx
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// Confirm asks for a yes/no answer on the command line. Anything but "y" or "yes" is a no.
func (cli *commandLine) Confirm(_ context.Context, prompt string) (bool, error) {
	if cli.yes {
		return true, nil
	}
	fmt.Fprintf(cli.out, "%s [y/N] ", prompt)
	line, err := cli.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (cli *commandLine) Success(msg string) {
	fmt.Fprintln(cli.out, msg)
}

func (cli *commandLine) Failure(err error) {
	cli.logger.Warn(err.Error(), err)
}

// parsePairs parses "key=value" arguments.
func parsePairs(flag string, pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("--%s %q: expected key=value", flag, pair)
		}
		values[k] = v
	}
	return values, nil
}
