package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ideagenerator "idea-stack/agents/idea-generator"
	"idea-stack/agents/idea-generator/web"
	"idea-stack/shared/config"
	"idea-stack/shared/monitoring"
	"idea-stack/shared/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "idea-generator",
	Short: "Turn a YouTube channel into fresh video ideas",
	Long: `idea-generator analyzes a channel's recent uploads, looks up related news and
Reddit discussions, and asks Gemini for new video ideas.

Example usage:
  idea-generator serve                          # Start the web UI and API on :8080
  idea-generator analyze https://youtube.com/@x # Run one analysis and print it
  idea-generator last                           # Show the last saved analysis`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis page and JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <channel-url>",
	Short: "Analyze one channel and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Print the last saved analysis",
	Args:  cobra.NoArgs,
	RunE:  runLast,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is config.yaml or $CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd, analyzeCmd, lastCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newGenerator(cfg *config.Config, monitor *monitoring.Monitor) (*ideagenerator.Generator, error) {
	backends, err := ideagenerator.DefaultBackends(cfg)
	if err != nil {
		return nil, err
	}
	return ideagenerator.NewGenerator(cfg.Credentials(), backends, monitor), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	monitor := monitoring.NewMonitor(reg)

	generator, err := newGenerator(cfg, monitor)
	if err != nil {
		return err
	}
	if missing := cfg.Credentials().Missing(); len(missing) > 0 {
		log.Printf("⚠️  Warning: %v not set; analyses will fail until configured", missing)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           web.NewRouter(generator, monitor, reg),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.RequestTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("%s listening on %s", generator.Name(), server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	generator, err := newGenerator(cfg, monitoring.NewMonitor(prometheus.NewRegistry()))
	if err != nil {
		return err
	}

	result, analyzeErr := generator.Analyze(ctx, args[0])

	snapshot := storage.Snapshot{InputText: args[0], LastResult: result}
	if analyzeErr != nil {
		snapshot.LastError = analyzeErr.Error()
	}
	store := storage.NewSnapshotStore(cfg.Storage.SnapshotFile)
	if err := store.Save(snapshot); err != nil {
		log.Printf("Failed to save analysis to %s: %v", store.Path(), err)
	}

	if analyzeErr != nil {
		return analyzeErr
	}
	return printJSON(cmd, result)
}

func runLast(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snapshot, err := storage.NewSnapshotStore(cfg.Storage.SnapshotFile).Load()
	if errors.Is(err, storage.ErrNoSnapshot) {
		fmt.Fprintln(cmd.OutOrStdout(), "No analysis saved yet. Run 'idea-generator analyze <channel-url>' first.")
		return nil
	}
	if err != nil {
		return err
	}
	return printJSON(cmd, snapshot)
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
