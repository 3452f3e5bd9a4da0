package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wa-go/internal/app"
	"wa-go/internal/config"
	"wa-go/internal/migrate"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every command.
var globalFlags struct {
	config  string
	output  string
	device  string
	key     string
	dryRun  bool
	verbose bool
}

// loadSettings reads the config file and merges the command line over it.
// Every pipeline command calls it before any stage runs; a missing or
// invalid config file is an error.
func loadSettings(cmd *cobra.Command, defaults map[string]string) (*config.Settings, error) {
	path := globalFlags.config
	if path == "" {
		path = defaults["config_path"]
	}

	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	o := config.Overrides{
		Output: globalFlags.output,
		Device: globalFlags.device,
		Key:    globalFlags.key,
		DryRun: globalFlags.dryRun,
	}
	o.Input = localString(cmd, "input")
	o.PullDevice = localString(cmd, "pull-device")
	o.PushDevice = localString(cmd, "push-device")

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	st, err := config.Resolve(cfg, o, cwd)
	if err != nil {
		return nil, fmt.Errorf("resolving config: %w", err)
	}
	return st, nil
}

// localString returns the value of a command-local string flag, or "" when
// the command has no such flag.
func localString(cmd *cobra.Command, name string) string {
	if cmd.LocalFlags().Lookup(name) == nil {
		return ""
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

// newApp reads the config and creates a WAApp. The caller must defer app.Close().
// cmdName identifies the CLI command being run (e.g. "pull", "all").
// needKey unlocks a sealed key file when no key is configured.
func newApp(cmd *cobra.Command, cmdName string, needKey bool) (*app.WAApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	st, err := loadSettings(cmd, defaults)
	if err != nil {
		return nil, err
	}
	if needKey {
		if st, err = unlockKey(st, defaults["key_file"]); err != nil {
			return nil, err
		}
	}

	a, err := app.NewWAApp(st, cmdName, app.Options{
		LogDir:   defaults["log_dir"],
		DataDir:  defaults["data_dir"],
		ToolsDir: defaults["tools_dir"],
		Verbose:  globalFlags.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "wa",
	Short:        "Move a WhatsApp backup between Android devices",
	SilenceUsage: true,
}

// pull command
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Copy the backup set from the device into the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "pull", false)
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.Pull(cmd.Context())
		if err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}
		printReport(rep)
		return nil
	},
}

// decrypt command
var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt msgstore and wa.db backups with the 64-hex key",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "decrypt", true)
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.Decrypt(cmd.Context())
		if err != nil {
			return fmt.Errorf("decrypt failed: %w", err)
		}
		printReport(rep)
		return nil
	},
}

// convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a contacts.vcf export to contacts.json",
	Long: "Convert a contacts.vcf export to contacts.json.\n\n" +
		"--output names the JSON file; it defaults to contacts.json next to the input.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("input")

		// --output is the JSON file here, not the working directory.
		out := globalFlags.output
		globalFlags.output = ""

		a, err := newApp(cmd, "convert", false)
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.Convert(cmd.Context(), in, out)
		if err != nil {
			return fmt.Errorf("convert failed: %w", err)
		}
		printReport(rep)
		return nil
	},
}

// push command
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Copy the local WhatsApp tree to the target device",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "push", false)
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.Push(cmd.Context())
		if err != nil {
			return fmt.Errorf("push failed: %w", err)
		}
		printReport(rep)
		return nil
	},
}

// all command
var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run pull, decrypt, convert and push in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "all", true)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.All(cmd.Context())
		if summary != nil {
			printSummary(summary)
		}
		if err != nil {
			return fmt.Errorf("workflow failed: %w", err)
		}
		return nil
	},
}

// devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "devices", false)
		if err != nil {
			return err
		}
		defer a.Close()

		devices, err := a.Devices(cmd.Context())
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No devices attached.")
			return nil
		}
		for _, d := range devices {
			fmt.Printf("%-24s  %-12s  %s\n", d.ID, d.State, d.Model)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "history", false)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, h := range runs {
			duration := ""
			if h.Run.FinishedAt != nil {
				duration = h.Run.FinishedAt.Sub(h.Run.StartedAt).Truncate(time.Millisecond).String()
			}
			dry := ""
			if h.Run.DryRun {
				dry = "  [dry-run]"
			}
			fmt.Printf("#%d  %-8s  %s  %-8s  %s%s\n",
				h.Run.ID,
				h.Run.Command,
				h.Run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				h.Run.Status,
				duration,
				dry,
			)
			for _, s := range h.Stages {
				fmt.Printf("      %-8s  %-8s  %s\n", s.Stage, s.Status, s.Detail)
			}
		}
		return nil
	},
}

func printReport(rep *migrate.Report) {
	if rep == nil {
		return
	}
	for _, o := range rep.Outcomes {
		fmt.Printf("  %s\n", o)
	}
	fmt.Printf("%s complete: %d item(s), %d warning(s)\n", rep.Stage, len(rep.Found()), len(rep.Warnings))
}

func printSummary(s *migrate.RunSummary) {
	fmt.Println("Summary:")
	for _, r := range s.Stages {
		line := fmt.Sprintf("  %-8s  %-8s", r.Stage, r.Status)
		if r.Detail != "" {
			line += "  " + r.Detail
		}
		fmt.Println(strings.TrimRight(line, " "))
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&globalFlags.config, "config", "c", "", "Config file (default $WA_CONFIG_PATH or ./config.json)")
	pf.StringVarP(&globalFlags.output, "output", "o", "", "Output directory")
	pf.StringVarP(&globalFlags.device, "device", "d", "", "Device serial for pull and push")
	pf.StringVarP(&globalFlags.key, "key", "k", "", "64-character hex decryption key")
	pf.BoolVar(&globalFlags.dryRun, "dry-run", false, "Show what would be done without doing it")
	pf.BoolVarP(&globalFlags.verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(pullCmd)
	pullCmd.Flags().String("pull-device", "", "Source device serial")

	rootCmd.AddCommand(pushCmd)
	pushCmd.Flags().String("push-device", "", "Target device serial")
	pushCmd.Flags().StringP("input", "i", "", "Local directory holding the WhatsApp tree")

	rootCmd.AddCommand(decryptCmd)
	decryptCmd.Flags().StringP("input", "i", "", "Directory holding the pulled WhatsApp tree")

	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("input", "i", "", "Input contacts.vcf")
	convertCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(allCmd)
	allCmd.Flags().String("pull-device", "", "Source device serial")
	allCmd.Flags().String("push-device", "", "Target device serial")

	rootCmd.AddCommand(devicesCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keyCmd)
}
