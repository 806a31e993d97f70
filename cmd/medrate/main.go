package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rgehrsitz/medrate/internal/calculation"
	"github.com/rgehrsitz/medrate/internal/compare"
	"github.com/rgehrsitz/medrate/internal/config"
	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/rgehrsitz/medrate/internal/output"
	"github.com/rgehrsitz/medrate/internal/tui"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "medrate %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

// session is the per-command state built from settings and flags
type session struct {
	settings *config.Settings
	engine   *calculation.Engine
	log      *zap.SugaredLogger
	parser   *config.InputParser
}

func newSession(cmd *cobra.Command) (*session, error) {
	configFile, _ := cmd.Flags().GetString("config")
	settings, err := config.LoadSettings(configFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("format") {
		format, _ := cmd.Flags().GetString("format")
		settings.OutputFormat = strings.ToLower(format)
	}
	if settings.OutputFormat == "table" {
		settings.OutputFormat = "console"
	}
	if cmd.Flags().Changed("tax-rate") {
		raw, _ := cmd.Flags().GetString("tax-rate")
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --tax-rate %q: %w", raw, err)
		}
		settings.TaxRate = rate
	}
	if debugMode, _ := cmd.Flags().GetBool("debug"); debugMode {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(settings.LogLevel, settings.LogFormat)
	if err != nil {
		return nil, err
	}
	sugar := logger.Sugar()

	engine := calculation.NewEngineWithTaxRate(settings.TaxRate)
	engine.SetLogger(sugar)

	return &session{
		settings: settings,
		engine:   engine,
		log:      sugar,
		parser:   config.NewInputParser(),
	}, nil
}

// asOf is the configured reference date, or today
func (s *session) asOf() time.Time {
	if !s.settings.ReferenceDate.IsZero() {
		return s.settings.ReferenceDate
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// fail logs err with its error code and returns it
func (s *session) fail(err error) error {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		s.log.Errorw("catalog configuration error", "code", domain.ErrorCode(err), "error", err)
	case errors.Is(err, domain.ErrValidation):
		s.log.Warnw("request rejected", "code", domain.ErrorCode(err), "error", err)
	default:
		s.log.Debugw("command failed", "error", err)
	}
	return err
}

func (s *session) write(cmd *cobra.Command, r *output.Report) error {
	f, err := output.FormatterByName(s.settings.OutputFormat)
	if err != nil {
		return err
	}
	return output.WriteFormatted(cmd.OutOrStdout(), f, r)
}

func (s *session) close() {
	_ = s.log.Sync()
}

var rootCmd = &cobra.Command{
	Use:   "medrate",
	Short: "Medical insurance rating and eligibility CLI",
	Long: "Prices household premiums against a product catalog, checks claims against " +
		"plan benefits, and compares plans side by side",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var quoteCmd = &cobra.Command{
	Use:   "quote [catalog-file] [request-file]",
	Short: "Quote a premium for a household",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		cat, err := s.parser.LoadCatalog(args[0])
		if err != nil {
			return s.fail(err)
		}
		req, err := s.parser.LoadQuoteRequest(args[1])
		if err != nil {
			return s.fail(err)
		}
		if plan, _ := cmd.Flags().GetString("plan"); plan != "" {
			req.PlanID = plan
		}
		if req.AsOf.IsZero() {
			req.AsOf = s.asOf()
		}

		q, err := s.engine.Quote(cat, *req)
		if err != nil {
			return s.fail(fmt.Errorf("quote failed: %w", err))
		}
		s.log.Infow("quoted", "plan", q.PlanID, "card", q.RateCardID, "billed", q.Billed.StringFixed(2), "as", q.BilledAs)

		return s.write(cmd, output.NewQuoteReport(args[1], q))
	},
}

var eligibilityCmd = &cobra.Command{
	Use:   "eligibility [catalog-file] [claim-file]",
	Short: "Check whether a claim is payable under a plan benefit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		cat, err := s.parser.LoadCatalog(args[0])
		if err != nil {
			return s.fail(err)
		}
		claim, err := s.parser.LoadClaimRequest(args[1])
		if err != nil {
			return s.fail(err)
		}

		verdict, err := s.engine.CheckEligibility(cat, *claim)
		if err != nil {
			return s.fail(fmt.Errorf("eligibility check failed: %w", err))
		}
		s.log.Infow("eligibility", "benefit", verdict.BenefitID, "eligible", verdict.Eligible, "reason", verdict.Reason)

		return s.write(cmd, output.NewEligibilityReport(args[1], verdict))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [catalog-file]",
	Short: "Validate a product catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		cat, err := s.parser.LoadCatalog(args[0])
		if err != nil {
			return s.fail(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Catalog %s is valid: %d plans, %d rate cards, %d benefits, %d discount rules\n",
			args[0], len(cat.Plans), len(cat.RateCards), len(cat.Benefits), len(cat.DiscountRules))
		return nil
	},
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [catalog-file]",
	Short: "Report overlapping rate bands, ambiguous loading rules and unquotable plans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		asOf := s.asOf()
		if raw, _ := cmd.Flags().GetString("as-of"); raw != "" {
			asOf, err = time.Parse("2006-01-02", raw)
			if err != nil {
				return fmt.Errorf("invalid --as-of %q: %w", raw, err)
			}
		}

		cat, err := s.parser.LoadCatalog(args[0])
		if err != nil {
			return s.fail(err)
		}

		d := s.engine.Diagnose(cat, asOf)
		if err := s.write(cmd, output.NewDiagnosticsReport(args[0], d)); err != nil {
			return err
		}

		if strict, _ := cmd.Flags().GetBool("strict"); strict && !d.Clean() {
			return fmt.Errorf("catalog %s has %d findings", args[0], d.Count())
		}
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [catalog-file] [request-file]",
	Short: "Quote one household against several plans",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		cat, err := s.parser.LoadCatalog(args[0])
		if err != nil {
			return s.fail(err)
		}
		req, err := s.parser.LoadQuoteRequest(args[1])
		if err != nil {
			return s.fail(err)
		}
		if req.AsOf.IsZero() {
			req.AsOf = s.asOf()
		}

		base, _ := cmd.Flags().GetString("base")
		if base == "" {
			base = req.PlanID
		}
		plansStr, _ := cmd.Flags().GetString("plans")
		if plansStr == "" {
			return fmt.Errorf("--plans flag is required to specify plans to compare")
		}

		compareEngine := compare.NewCompareEngine(s.engine)
		compSet, err := compareEngine.Compare(context.Background(), cat, *req, compare.CompareOptions{
			BasePlanID:  base,
			PlanIDs:     strings.Split(plansStr, ","),
			CatalogPath: args[0],
		})
		if err != nil {
			return s.fail(fmt.Errorf("comparison failed: %w", err))
		}

		out := cmd.OutOrStdout()
		switch s.settings.OutputFormat {
		case "csv":
			formatter := &compare.CSVFormatter{}
			text, err := formatter.Format(compSet)
			if err != nil {
				return fmt.Errorf("failed to format CSV: %w", err)
			}
			fmt.Fprint(out, text)
		case "json":
			formatter := &compare.JSONFormatter{Pretty: true}
			text, err := formatter.Format(compSet)
			if err != nil {
				return fmt.Errorf("failed to format JSON: %w", err)
			}
			fmt.Fprintln(out, text)
		default:
			formatter := &compare.TableFormatter{}
			if compact, _ := cmd.Flags().GetBool("compact"); compact {
				fmt.Fprintln(out, formatter.FormatCompact(compSet))
				return nil
			}
			fmt.Fprint(out, formatter.Format(compSet))
		}
		return nil
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse [catalog-file] [request-file]",
	Short: "Interactively browse every plan priced for a household",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("file not found: %s", path)
			}
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		model := tui.NewModel(tui.Options{
			CatalogPath: args[0],
			RequestPath: args[1],
			Engine:      s.engine,
			AsOf:        s.asOf(),
		})
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Settings file (default: ./medrate.yaml or $HOME/.medrate/medrate.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "console", "Output format (console, json, csv)")
	rootCmd.PersistentFlags().String("tax-rate", "", "Tax rate as a fraction, e.g. 0.02 (overrides settings)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	quoteCmd.Flags().String("plan", "", "Quote this plan instead of the request's plan_id")

	diagnoseCmd.Flags().String("as-of", "", "Date to diagnose active rate cards on (YYYY-MM-DD, default: reference date or today)")
	diagnoseCmd.Flags().Bool("strict", false, "Exit non-zero when there are findings")

	compareCmd.Flags().String("base", "", "Base plan to compare against (default: the request's plan_id)")
	compareCmd.Flags().String("plans", "", "Comma-separated list of plans to compare (required)")
	compareCmd.Flags().Bool("compact", false, "Single-line summary (table format only)")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(eligibilityCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
