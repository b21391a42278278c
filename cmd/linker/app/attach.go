package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	linker "github.com/IronGate-Business-Advisors/additional-companies-linker"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/internal/mongostore"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/internal/pipedrive"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/profile"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/report"
)

// attachFlags holds the attach command's flag values.
type attachFlags struct {
	dryRun      bool
	noConfirm   bool
	limit       int64
	reportFile  string
	profile     string
	profileFile string
}

// NewAttachCommand creates the attach command: fetch submissions, resolve
// their companies to catalog products, and attach them to deals.
func (a *App) NewAttachCommand() *cobra.Command {
	flags := &attachFlags{}

	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Attach submission companies to their deals as products",
		Long: `Attach fetches submissions that reference a deal and carry additional
companies, resolves each company to a catalog product, and attaches the
products to the deal as line items with quantity equal to headcount.

Use --dry-run to preview the changes without writing to Pipedrive.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAttach(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "preview changes without writing to the CRM")
	cmd.Flags().BoolVar(&flags.noConfirm, "no-confirm", false, "skip the confirmation prompt")
	cmd.Flags().Int64VarP(&flags.limit, "limit", "n", 0, "maximum submissions to process (0 = all)")
	cmd.Flags().StringVar(&flags.reportFile, "report", "", "write results to a file (.csv or .yaml)")
	cmd.Flags().StringVar(&flags.profile, "profile", "", "profile: standard, conservative, aggressive, migration")
	cmd.Flags().StringVar(&flags.profileFile, "profile-file", "", "YAML file with profile overrides")

	return cmd
}

func (a *App) runAttach(ctx context.Context, flags *attachFlags) error {
	if err := a.config.ValidateConnections(); err != nil {
		return err
	}
	if err := report.Validate(flags.reportFile); err != nil {
		return err
	}

	prof, err := a.loadProfile(flags)
	if err != nil {
		return err
	}

	a.printRunSummary(prof, flags)

	if prof.RequireConfirmation && !flags.dryRun && !flags.noConfirm {
		if !confirm(os.Stdin, os.Stdout) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	store, err := mongostore.Connect(ctx, a.config.MongoConfig())
	if err != nil {
		return err
	}
	if total, err := store.Count(ctx); err == nil {
		a.logger.Debug().Int64("total_submissions", total).Msg("Connected to store")
	}
	defer func() {
		// The run context may already be cancelled; give the disconnect its
		// own deadline.
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	var crmOpts []pipedrive.Option
	if a.config.PipedriveBaseURL != "" {
		crmOpts = append(crmOpts, pipedrive.WithBaseURL(a.config.PipedriveBaseURL))
	}
	crm, err := pipedrive.New(a.config.PipedriveAPIToken, crmOpts...)
	if err != nil {
		return err
	}

	l, err := linker.New(store, crm, prof,
		linker.WithDryRun(flags.dryRun),
		linker.WithLimit(flags.limit),
	)
	if err != nil {
		return err
	}

	results, err := l.Run(ctx)
	if err != nil {
		return err
	}

	if err := report.WriteTable(os.Stdout, results); err != nil {
		return err
	}
	if flags.reportFile != "" {
		if err := report.WriteFile(flags.reportFile, results); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", flags.reportFile)
	}

	if stats := report.Summary(results); stats.HasFailures() {
		return fmt.Errorf("%d of %d submissions failed", stats.Failed, stats.Processed)
	}
	return nil
}

// loadProfile resolves the run's profile: an explicit override file wins,
// otherwise the named profile from the flag or config.
func (a *App) loadProfile(flags *attachFlags) (profile.Profile, error) {
	if flags.profileFile != "" {
		return profile.FromFile(flags.profileFile)
	}
	name := flags.profile
	if name == "" {
		name = a.config.Profile
	}
	return profile.Load(name)
}

// printRunSummary echoes the effective settings before the run starts.
func (a *App) printRunSummary(prof profile.Profile, flags *attachFlags) {
	fmt.Println("Configuration:")
	fmt.Printf("  Profile:            %s\n", prof.Name)
	fmt.Printf("  Match strategy:     %s\n", prof.MatchStrategy)
	fmt.Printf("  Auto-create:        %t\n", prof.AutoCreateProducts)
	fmt.Printf("  Skip orphans:       %t\n", prof.SkipOrphanedDeals)
	fmt.Printf("  Allow decreases:    %t\n", prof.AllowQuantityDecrease)
	fmt.Printf("  Include primary:    %t\n", prof.IncludePrimaryCompany)
	fmt.Printf("  Unit price:         $%.2f\n", prof.UnitPrice)
	fmt.Printf("  Database:           %s.%s\n", a.config.MongoDatabase, a.config.MongoCollection)
	if flags.limit > 0 {
		fmt.Printf("  Limit:              %d\n", flags.limit)
	}
	if flags.dryRun {
		fmt.Println("  Mode:               DRY RUN (no writes)")
	}
	fmt.Println()
}

// confirm asks for an explicit yes before a live run.
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "This will modify Pipedrive deals. Continue? [y/N]: ")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
