// Command dynhosts is the end-user CLI for the dynhostsd daemon.
//
// Usage:
//
//	dynhosts add <addr> <hostname> [alias...]   - Record a host
//	dynhosts pin <hostname> [alias...]          - Resolve upstream and record every answer
//	dynhosts lookup <name> [--first]            - Addresses for a name
//	dynhosts reverse <addr> [--first]           - Names for an address
//	dynhosts list                               - Show the whole table
//	dynhosts export [--format hosts|zone]       - Write the table as hosts lines or zone records
//	dynhosts status                             - Daemon counters
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/dynhosts/internal/buildinfo"
	"github.com/lc/dynhosts/internal/config"
	"github.com/lc/dynhosts/internal/export"
	"github.com/lc/dynhosts/internal/filesys"
	"github.com/lc/dynhosts/internal/hosts"
	"github.com/lc/dynhosts/pkg/client"
)

func main() {
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	cli := client.New(cfg.Socket.Path)

	root := &cobra.Command{
		Use:   "dynhosts",
		Short: "Dynamic hosts table CLI",
		Long: `dynhosts talks to dynhostsd, which keeps a runtime hosts table mapping
hostnames and aliases to addresses and back.`,
		SilenceUsage: true,
	}

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	// ---- add command ----
	addCmd := &cobra.Command{
		Use:     "add <addr> <hostname> [alias...]",
		Short:   "Record an address for a hostname and its aliases",
		Example: "dynhosts add 127.1.2.3 host.example.com host",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			r := hosts.NewRecord(args[0], args[1], args[2:]...)
			if err := cli.Add(ctx, r); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ Added ")
			color.New(color.FgHiGreen, color.Bold).Printf("%s ", r.Hostname)
			color.New(color.FgGreen, color.Bold).Printf("-> ")
			color.New(color.FgHiYellow, color.Bold).Printf("%s\n", r.Addr)
			return nil
		},
	}

	// ---- pin command ----
	pinCmd := &cobra.Command{
		Use:   "pin <hostname> [alias...]",
		Short: "Resolve a hostname upstream and record every answer",
		Long: `Resolve a hostname through the daemon's upstream resolver and record one
entry per returned address. Later upstream changes are not picked up.`,
		Example: "dynhosts pin api.example.com api",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			addrs, err := cli.Pin(ctx, args[0], hosts.Aliases(args[1:]))
			if err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ Pinned ")
			color.New(color.FgHiGreen, color.Bold).Printf("%s ", args[0])
			color.New(color.FgGreen, color.Bold).Printf("to ")
			color.New(color.FgHiYellow, color.Bold).Printf("%s\n", strings.Join(addrs, ", "))
			return nil
		},
	}

	// ---- lookup / reverse commands ----
	var first bool
	lookupCmd := &cobra.Command{
		Use:     "lookup <name>",
		Short:   "Show the addresses recorded for a hostname or alias",
		Example: "dynhosts lookup host.example.com --first",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			if first {
				addr, err := cli.Address(ctx, args[0])
				return printOne(addr, err)
			}
			addrs, err := cli.Addresses(ctx, args[0])
			return printAll(addrs, err)
		},
	}
	lookupCmd.Flags().BoolVar(&first, "first", false, "print only the first recorded address")

	reverseCmd := &cobra.Command{
		Use:     "reverse <addr>",
		Short:   "Show the names recorded for an address",
		Example: "dynhosts reverse 127.1.2.3",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			if first {
				name, err := cli.Name(ctx, args[0])
				return printOne(name, err)
			}
			names, err := cli.Names(ctx, args[0])
			return printAll(names, err)
		},
	}
	reverseCmd.Flags().BoolVar(&first, "first", false, "print only the first recorded name")

	// ---- list command ----
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List every address with its names",
		Example: "dynhosts list",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			entries, err := cli.Entries(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				color.Yellow("No hosts recorded.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Address", "Names"})
			table.SetHeaderColor(
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
			)
			table.SetBorder(false)
			table.SetColumnColor(
				tablewriter.Colors{tablewriter.FgHiYellowColor},
				tablewriter.Colors{tablewriter.FgGreenColor},
			)
			for _, e := range entries {
				table.Append([]string{e.Addr, strings.Join(e.Names, " ")})
			}

			color.New(color.Bold).Println("DYNAMIC HOSTS:")
			table.Render()
			return nil
		},
	}

	// ---- export command ----
	var (
		format string
		out    string
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the table as hosts(5) lines or DNS zone records",
		Long: `Write the table to stdout, or atomically replace --out. The zone format
emits A/AAAA and PTR records and skips entries whose address is not an IP.`,
		Example: "dynhosts export --format zone --out /etc/dynhosts.zone",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			entries, err := cli.Entries(ctx)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			skipped, err := export.Write(&buf, f, entries)
			if err != nil {
				return err
			}
			for _, addr := range skipped {
				color.New(color.FgYellow).Fprintf(os.Stderr, "skipped non-IP address %s\n", addr)
			}
			if out == "" {
				_, err = os.Stdout.Write(buf.Bytes())
				return err
			}
			return filesys.AtomicWrite(filesys.OS(), out, buf.Bytes(), 0o644)
		},
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", string(export.FormatHosts), "output format: hosts or zone")
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "file to replace instead of writing to stdout")

	// ---- status command ----
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and table counters",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			st, err := cli.Status(ctx)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetBorder(false)
			table.SetColumnColor(
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
			)
			table.AppendBulk([][]string{
				{"version", st.Version + " (" + st.Commit + ")"},
				{"uptime", st.Uptime.Round(time.Second).String()},
				{"names", fmt.Sprint(st.Stats.Names)},
				{"addresses", fmt.Sprint(st.Stats.Addrs)},
				{"inserts", fmt.Sprint(st.Stats.Inserts)},
				{"lookups", fmt.Sprint(st.Stats.Lookups)},
				{"misses", fmt.Sprint(st.Stats.Misses)},
			})
			table.Render()
			return nil
		},
	}

	root.AddCommand(addCmd, pinCmd, lookupCmd, reverseCmd, listCmd, exportCmd, statusCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func printOne(v string, err error) error {
	if errors.Is(err, hosts.ErrNotFound) {
		color.Yellow("No entry found.")
		os.Exit(2)
	}
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func printAll(vs []string, err error) error {
	if err != nil {
		return err
	}
	if len(vs) == 0 {
		color.Yellow("No entries found.")
		return nil
	}
	for _, v := range vs {
		fmt.Println(v)
	}
	return nil
}
