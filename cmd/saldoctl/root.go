package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"saldo/internal/core"
	"saldo/internal/interpreter"
	"saldo/internal/services"
)

// newRootCmd builds the command tree. open is called once before any
// subcommand runs.
func newRootCmd(open opener) *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:   "saldoctl",
		Short: "Record and summarize personal income and expenses",
		Long: `saldoctl works on the store selected by DATA_BACKEND. With the memory
backend set MEMORY_SNAPSHOT_PATH, otherwise nothing outlives the command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = open(cmd.Context(), cmd.ErrOrStderr())
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a == nil || a.close == nil {
				return nil
			}
			return a.close()
		},
	}

	get := func() *app { return a }
	root.AddCommand(
		newAddCmd(get),
		newListCmd(get),
		newSummaryCmd(get),
		newTopCmd(get),
		newTrendCmd(get),
		newCategoriesCmd(get),
		newDeleteCmd(get),
		newUpcomingCmd(get),
	)
	return root
}

func newAddCmd(get func() *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Interpret a description and save it",
		Example: `  saldoctl add "Spent $50 on groceries today"
  saldoctl add "bought a kite for $30" --category Hobbies`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			resp, err := a.transactions.SubmitText(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if resp.NeedsMoreInfo && category != "" {
				resp, err = a.transactions.ResumeText(cmd.Context(), resp, category)
				if err != nil {
					return err
				}
			}
			return printResponse(cmd, resp)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Answer to the category question, if one is asked")
	return cmd
}

func printResponse(cmd *cobra.Command, resp interpreter.Response) error {
	out := cmd.OutOrStdout()
	switch {
	case resp.Complete():
		tx := resp.Transaction
		fmt.Fprintf(out, "Saved %s %s %s in %s on %s (%s)\n",
			tx.Kind, core.FormatAmount(tx.Amount), recurrenceLabel(*tx), tx.Category, tx.Date, tx.ID)
		return nil
	case resp.NeedsMoreInfo:
		fmt.Fprintln(out, resp.FollowUpQuestion)
		if resp.Draft != nil {
			fmt.Fprintln(out, "Run the command again with --category to answer.")
		}
		return nil
	default:
		return errors.New(resp.Error)
	}
}

func recurrenceLabel(tx core.Transaction) string {
	if !tx.IsRecurring {
		return "once"
	}
	return string(tx.Frequency)
}

// periodFlags adds --month and --year defaulting to the current month.
type periodFlags struct {
	month, year int
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&p.month, "month", "m", 0, "Month 1-12 (default current)")
	cmd.Flags().IntVarP(&p.year, "year", "y", 0, "Year (default current)")
}

func (p periodFlags) resolve(a *app) (int, int) {
	now := a.now()
	month, year := p.month, p.year
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	return month, year
}

func newListCmd(get func() *app) *cobra.Command {
	var (
		month, year int
		kind        string
		sortField   string
		sortOrder   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			field, order, err := core.ParseSort(sortField, sortOrder)
			if err != nil {
				return err
			}
			k := core.Kind(kind)
			if kind != "" && !k.IsValid() {
				return fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
			}
			txs, err := get().transactions.List(cmd.Context(), services.ListFilter{
				Month: month, Year: year, Kind: k, Field: field, Order: order,
			})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tKIND\tAMOUNT\tCATEGORY\tRECURS\tDESCRIPTION")
			for _, tx := range txs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.ID, tx.Date, tx.Kind, core.FormatAmount(tx.Amount), tx.Category, recurrenceLabel(tx), tx.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&month, "month", "m", 0, "Only transactions counted in this month (needs --year)")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year for --month")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "income or expense")
	cmd.Flags().StringVar(&sortField, "sort", "date", "date, amount or category")
	cmd.Flags().StringVar(&sortOrder, "order", "desc", "asc or desc")
	return cmd
}

func newSummaryCmd(get func() *app) *cobra.Command {
	var period periodFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show monthly totals and the balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			month, year := period.resolve(a)
			total, err := a.summary.Totals(cmd.Context(), month, year)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Period\t%04d-%02d\n", year, month)
			fmt.Fprintf(w, "Income\t%s\n", core.FormatAmount(total.Income))
			fmt.Fprintf(w, "Expense\t%s\n", core.FormatAmount(total.Expense))
			fmt.Fprintf(w, "Balance\t%s\n", core.FormatAmount(total.Balance))
			return w.Flush()
		},
	}
	period.register(cmd)
	return cmd
}

func newTopCmd(get func() *app) *cobra.Command {
	var (
		period periodFlags
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the categories with the highest spending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			month, year := period.resolve(a)
			top, err := a.summary.Top(cmd.Context(), month, year, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for i, c := range top {
				fmt.Fprintf(w, "%d.\t%s\t%s\n", i+1, c.Category, core.FormatAmount(c.Amount))
			}
			return w.Flush()
		},
	}
	period.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of categories")
	return cmd
}

func newTrendCmd(get func() *app) *cobra.Command {
	var (
		period periodFlags
		window int
	)
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show income and expense for the months up to the selected one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			month, year := period.resolve(a)
			points, err := a.summary.Trend(cmd.Context(), month, year, window)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSE")
			for _, p := range points {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Label, core.FormatAmount(p.Income), core.FormatAmount(p.Expense))
			}
			return w.Flush()
		},
	}
	period.register(cmd)
	cmd.Flags().IntVarP(&window, "window", "w", 6, "Number of months")
	return cmd
}

func newCategoriesCmd(get func() *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			var (
				cats []core.Category
				err  error
			)
			if kind == "" {
				cats, err = a.categories.List(cmd.Context())
			} else {
				cats, err = a.categories.ListByKind(cmd.Context(), core.Kind(kind))
			}
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tNAME\tCOLOR")
			for _, c := range cats {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Kind, c.Name, c.Color)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "income or expense")
	return cmd
}

func newDeleteCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().transactions.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newUpcomingCmd(get func() *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show recurring transactions due soon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			due, err := a.recurring.Upcoming(cmd.Context(), core.DateOf(a.now()), days)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DUE\tKIND\tAMOUNT\tCATEGORY\tDESCRIPTION")
			for _, u := range due {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					u.Next, u.Transaction.Kind, core.FormatAmount(u.Transaction.Amount), u.Transaction.Category, u.Transaction.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", 30, "Look-ahead in days")
	return cmd
}
