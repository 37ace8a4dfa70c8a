package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"

	"github.com/mamadbah2/remitos/internal/config"
	"github.com/mamadbah2/remitos/internal/repository/sheets"
	"github.com/mamadbah2/remitos/internal/service/ledger"
	"github.com/mamadbah2/remitos/internal/service/reporting"
	"github.com/mamadbah2/remitos/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	root := newRootCommand(os.Stdout)
	if err := root.ParseAndRun(context.Background(), os.Args[1:], ff.WithEnvVarPrefix("LEDGERCTL")); err != nil {
		if !errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		fmt.Fprintf(os.Stderr, "\n%s\n", ffhelp.Command(root.GetSelected()))
		os.Exit(1)
	}
}

type ledgerFlags struct {
	clientEmail *string
	privateKey  *string
	credentials *string
	sheetName   *string
	timezone    *string
	logLevel    *string
}

func (f ledgerFlags) sheetsConfig() config.SheetsConfig {
	return config.SheetsConfig{
		ClientEmail:     *f.clientEmail,
		PrivateKey:      strings.ReplaceAll(*f.privateKey, `\n`, "\n"),
		CredentialsPath: *f.credentials,
		SheetName:       *f.sheetName,
	}
}

func newRootCommand(stdout io.Writer) *ff.Command {
	rootFlags := ff.NewFlagSet("ledgerctl")
	lf := ledgerFlags{
		clientEmail: rootFlags.StringLong("client-email", os.Getenv("GOOGLE_SHEETS_CLIENT_EMAIL"), "service account email"),
		privateKey:  rootFlags.StringLong("private-key", os.Getenv("GOOGLE_SHEETS_PRIVATE_KEY"), "service account private key"),
		credentials: rootFlags.StringLong("credentials", os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"), "service account JSON key file"),
		sheetName:   rootFlags.StringLong("sheet-name", envOr("LEDGER_SHEET_NAME", "Hoja 1"), "ledger tab name"),
		timezone:    rootFlags.StringLong("timezone", envOr("TIMEZONE", "America/Argentina/Buenos_Aires"), "timezone of the ledger timestamps"),
		logLevel:    rootFlags.StringLong("log-level", "warn", "log level"),
	}

	resolveCmd := &ff.Command{
		Name:      "resolve",
		Usage:     "ledgerctl resolve <handle>",
		ShortHelp: "print the canonical ledger ID of a handle or sharing URL",
		Flags:     ff.NewFlagSet("resolve").SetParent(rootFlags),
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("resolve takes exactly one handle")
			}
			_, err := fmt.Fprintln(stdout, ledger.ResolveHandle(args[0]))
			return err
		},
	}

	statsFlags := ff.NewFlagSet("stats").SetParent(rootFlags)
	handle := statsFlags.StringLong("handle", "", "ledger ID or sharing URL")
	statsCmd := &ff.Command{
		Name:      "stats",
		Usage:     "ledgerctl stats --handle <handle>",
		ShortHelp: "print this month's trip stats for one ledger",
		Flags:     statsFlags,
		Exec: func(ctx context.Context, _ []string) error {
			if strings.TrimSpace(*handle) == "" {
				return fmt.Errorf("--handle is required")
			}
			return runStats(ctx, stdout, lf, *handle)
		},
	}

	return &ff.Command{
		Name:        "ledgerctl",
		Usage:       "ledgerctl <subcommand> [flags]",
		ShortHelp:   "inspect driver ledgers",
		Flags:       rootFlags,
		Subcommands: []*ff.Command{resolveCmd, statsCmd},
		Exec: func(context.Context, []string) error {
			return ff.ErrHelp
		},
	}
}

func runStats(ctx context.Context, stdout io.Writer, lf ledgerFlags, handle string) error {
	log, err := logger.New(*lf.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	loc, err := time.LoadLocation(*lf.timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	repo, err := sheets.NewGoogleSheetRepository(ctx, lf.sheetsConfig(), log.Named("repo.sheets"))
	if err != nil {
		return err
	}

	svc := reporting.NewService(repo, *lf.sheetName, loc, log.Named("svc.reporting"))
	snapshot := svc.MonthlyStats(ctx, handle)
	log.Debug("stats computed", zap.String("spreadsheet_id", ledger.ResolveHandle(handle)))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
