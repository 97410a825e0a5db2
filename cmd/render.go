package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/blacktop/superchat/internal/config"
	"github.com/blacktop/superchat/internal/export"
	"github.com/blacktop/superchat/internal/superchat"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render [link]",
	Short: "Render once and save superChat.png without the TUI",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, params := setup(cmd, args)
		renderOnce(cmd, cfg, newClient(cfg, logger), params)
	},
}

var linkCmd = &cobra.Command{
	Use:   "link [link]",
	Short: "Print the shareable image URL",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, params := setup(cmd, args)
		fmt.Println(newClient(cfg, logger).ShareURL(params))
	},
}

func renderOnce(cmd *cobra.Command, cfg config.Config, client *superchat.Client, params superchat.Params) {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	e := export.New(export.Config{
		Renderer:     client,
		OutputFolder: cfg.OutputFolder,
		Strategy:     export.Strategy(cfg.Strategy),
		Logger:       logger,
	})
	if _, err := e.Run(ctx, params); err != nil {
		logger.Error("Failed to render image", "err", err)
		os.Exit(1)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Timeout: timeout, Transport: transport}
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(linkCmd)
}
