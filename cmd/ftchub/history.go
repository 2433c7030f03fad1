package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcrubro/ftc-driver-hub/internal/recorder"
)

func historyCmd(opts *rootOptions) *cobra.Command {
	var (
		dbPath   string
		session  string
		kind     string
		limit    int
		sessions bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sessions and events",
		Long: `Show events recorded by "ftchub connect" when record.path is set.

Examples:
  ftchub history --sessions
  ftchub history --kind state --limit 20
  ftchub history --session 6f1c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Record.Path
			}
			if dbPath == "" {
				return errors.New("no recorder database: set record.path or pass --db")
			}
			log, err := opts.logger(cfg)
			if err != nil {
				return err
			}
			rec, err := recorder.Open(dbPath, log)
			if err != nil {
				return err
			}
			defer rec.Close()

			if sessions {
				list, err := rec.Sessions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				printSessions(cmd.OutOrStdout(), list)
				return nil
			}
			events, err := rec.History(cmd.Context(), recorder.Query{SessionID: session, Kind: kind, Limit: limit})
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), events)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "recorder database (default record.path)")
	cmd.Flags().StringVar(&session, "session", "", "only events from this session")
	cmd.Flags().StringVar(&kind, "kind", "", "only events of this kind")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum rows")
	cmd.Flags().BoolVar(&sessions, "sessions", false, "list sessions instead of events")
	return cmd
}

func printSessions(out io.Writer, list []recorder.Session) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tHOST\tSTARTED\tDURATION")
	for _, s := range list {
		dur := "open"
		if s.EndedAt != nil {
			dur = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s:%d\t%s\t%s\n", s.ID, s.Host, s.Port, s.StartedAt.Local().Format(time.DateTime), dur)
	}
	tw.Flush()
}

func printEvents(out io.Writer, events []recorder.Event) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tNAME\tDATA")
	// Oldest first reads naturally in a terminal.
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.At.Local().Format("15:04:05.000"), e.Kind, e.Name, oneLine(e.Data))
	}
	tw.Flush()
}

func oneLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}
