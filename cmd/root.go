/*
Copyright © 2024-2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blacktop/superchat/internal/blob"
	"github.com/blacktop/superchat/internal/config"
	"github.com/blacktop/superchat/internal/export"
	"github.com/blacktop/superchat/internal/superchat"
	"github.com/blacktop/superchat/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	// flags
	logger         *log.Logger
	verbose        bool
	configPath     string
	endpoint       string
	outputFolder   string
	strategy       string
	protocol       string
	logFile        string
	debounce       time.Duration
	timeout        time.Duration
	noShare        bool
	honorLinkPrice bool
	// form fields
	name    string
	message string
	icon    string
	price   int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "superchat [link]",
	Short: "Super Chat image maker TUI",
	Long: `Build a Super Chat style image (name, icon, price tier, message), preview it
inline and share or save it. An optional link such as
https://superchat.uzimaru.com/?name=Bob&message=Hi pre-fills the form.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, params := setup(cmd, args)

		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			logger.Warn("stdout is not a terminal, rendering without the TUI")
			renderOnce(cmd, cfg, newClient(cfg, logger), params)
			return
		}

		tuiLog, closeLog := newTUILogger(cfg)
		defer closeLog()
		client := newClient(cfg, tuiLog)

		var sharer export.Sharer
		if cfg.Share && export.ClipboardAvailable() {
			sharer = export.ClipboardSharer{Folder: cfg.OutputFolder}
		}
		m := tui.New(tui.Options{
			Renderer: client,
			Exporter: export.New(export.Config{
				Renderer:     client,
				Sharer:       sharer,
				OutputFolder: cfg.OutputFolder,
				Strategy:     export.Strategy(cfg.Strategy),
				Logger:       tuiLog,
			}),
			Blobs:    blob.NewStore(),
			Initial:  params,
			Debounce: cfg.Debounce,
			Timeout:  cfg.Timeout,
			Protocol: cfg.Protocol,
			Logger:   tuiLog,
		})

		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
		if _, err := p.Run(); err != nil {
			logger.Error("Error running program", "err", err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// setup loads the config, applies flags and reads the initial form values.
// Any failure is fatal.
func setup(cmd *cobra.Command, args []string) (config.Config, superchat.Params) {
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	path, explicit := configPath, cmd.Flags().Changed("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		logger.Error("Failed to load config", "path", path, "err", err)
		os.Exit(1)
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	var link string
	if len(args) > 0 {
		link = args[0]
	}
	params, err := superchat.FromLink(link, superchat.QueryOptions{HonorPrice: cfg.HonorLinkPrice})
	if err != nil {
		logger.Error("Invalid link", "link", link, "err", err)
		os.Exit(1)
	}
	if err := applyFieldFlags(cmd, &params); err != nil {
		logger.Error("Invalid field", "err", err)
		os.Exit(1)
	}
	logger.Debug("Initial parameters", "name", params.Name, "price", params.Price, "message", params.Message, "icon", params.Icon)
	return cfg, params
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = endpoint
	}
	if flags.Changed("output") {
		cfg.OutputFolder = outputFolder
	}
	if flags.Changed("strategy") {
		cfg.Strategy = strategy
	}
	if flags.Changed("protocol") {
		cfg.Protocol = protocol
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("no-share") {
		cfg.Share = !noShare
	}
	if flags.Changed("honor-link-price") {
		cfg.HonorLinkPrice = honorLinkPrice
	}
	if flags.Changed("debounce") {
		cfg.Debounce = debounce
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
}

func applyFieldFlags(cmd *cobra.Command, p *superchat.Params) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = name
	}
	if flags.Changed("message") {
		p.Message = message
	}
	if flags.Changed("price") {
		p.Price = superchat.ClampPrice(price)
	}
	if flags.Changed("icon") {
		if _, err := os.Stat(icon); err != nil {
			return fmt.Errorf("icon %s: %w", icon, err)
		}
		p.Icon = icon
	}
	return nil
}

func newClient(cfg config.Config, l *log.Logger) *superchat.Client {
	client, err := superchat.NewClient(cfg.Endpoint,
		superchat.WithHTTPClient(newHTTPClient(cfg.Timeout)),
		superchat.WithUserAgent(cfg.UserAgent),
		superchat.WithLogger(l),
	)
	if err != nil {
		logger.Error("Invalid endpoint", "endpoint", cfg.Endpoint, "err", err)
		os.Exit(1)
	}
	return client
}

// tuiLogPath is where TUI logs go: the configured log file, or a file in the
// temp dir when verbose. Empty means logs are dropped.
func tuiLogPath(cfg config.Config) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	if verbose {
		return filepath.Join(os.TempDir(), "superchat.log")
	}
	return ""
}

// newTUILogger keeps log output off the alt screen.
func newTUILogger(cfg config.Config) (*log.Logger, func()) {
	path := tuiLogPath(cfg)
	if path == "" {
		return log.New(io.Discard), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.Error("Failed to open log file", "path", path, "err", err)
		os.Exit(1)
	}
	if cfg.LogFile == "" {
		logger.Info("Writing TUI logs", "path", path)
	}
	l := log.NewWithOptions(f, log.Options{ReportTimestamp: true})
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l, func() { f.Close() }
}

func init() {
	// Override the default error level style.
	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR!!").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("204")).
		Foreground(lipgloss.Color("0"))
	// Add a custom style for key `err`
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	styles.Values["err"] = lipgloss.NewStyle().Bold(true)
	logger = log.New(os.Stderr)
	logger.SetStyles(styles)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "V", false, "Verbose output")
	pf.StringVarP(&configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/superchat/config.yaml)")
	pf.StringVarP(&endpoint, "endpoint", "e", superchat.DefaultEndpoint, "Rendering endpoint")
	pf.StringVarP(&outputFolder, "output", "o", "", "Output folder")
	pf.StringVarP(&strategy, "strategy", "s", "post", "How images are fetched for saving (post or get)")
	pf.StringVar(&protocol, "protocol", "auto", "Terminal image protocol (auto, kitty, iterm2, sixel, halfblocks, none)")
	pf.StringVar(&logFile, "log-file", "", "Write TUI logs to this file")
	pf.DurationVarP(&debounce, "debounce", "d", config.DefaultQuietInterval, "Quiet interval before the preview refreshes")
	pf.DurationVarP(&timeout, "timeout", "t", superchat.DefaultTimeout, "Request timeout")
	pf.BoolVar(&noShare, "no-share", false, "Always save instead of sharing")
	pf.BoolVar(&honorLinkPrice, "honor-link-price", false, "Use numeric prices from the link instead of the default")
	pf.StringVarP(&name, "name", "n", "", "Name shown on the Super Chat")
	pf.StringVarP(&message, "message", "m", "", "Message (needs a price of 200 or more)")
	pf.StringVarP(&icon, "icon", "i", "", "Icon image file")
	pf.IntVarP(&price, "price", "p", superchat.DefaultPrice, "Price in JPY (100-50000)")
	rootCmd.MarkPersistentFlagDirname("output")
	rootCmd.MarkPersistentFlagFilename("icon", "png", "jpg", "jpeg", "gif", "webp")
	rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml")
}
