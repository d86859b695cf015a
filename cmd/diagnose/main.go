package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/plantmd/backend/internal/adapters/cache"
	"github.com/plantmd/backend/internal/application/pipeline"
	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/domain/providers"
	"github.com/plantmd/backend/internal/infrastructure/clients/classifier"
	"github.com/plantmd/backend/internal/infrastructure/clients/lookup"
	"github.com/plantmd/backend/internal/session"
	"github.com/plantmd/backend/pkg/config"
)

var (
	plantFlag string
	dbFlag    string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Diagnose plant diseases from leaf photos",
	Long: `diagnose uploads a leaf photo to the PlantMD analysis service,
looks up treatment details for each detected disease, and keeps the
result on this device so it can be reviewed later.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !verbose {
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "path to the local session database (default ~/.plantmd/diagnosis.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	analyzeCmd.Flags().StringVar(&plantFlag, "plant", "", "plant category (e.g. tomato, corn, rice, potato)")
	analyzeCmd.MarkFlagRequired("plant")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyze a leaf photo and fetch treatment information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, closeStore, err := openStore(&cfg.Session)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx := cmd.Context()
		store.SweepExpired(ctx)

		image, err := readImage(args[0])
		if err != nil {
			return err
		}

		p := pipeline.New(
			classifier.NewClient(&cfg.Classifier),
			lookup.NewClient(&cfg.Lookup),
			store,
			cfg,
		)

		done := make(chan error, 1)
		go func() {
			done <- p.StartAnalysis(ctx, image, plantFlag)
		}()

		err = watchProgress(ctx, p, done)
		snap := p.Snapshot()
		if err != nil {
			fmt.Fprintf(os.Stderr, "\ndiagnosis failed: %s\n", snap.Error)
			return err
		}

		fmt.Println()
		printResults(store.GetEnrichment(ctx, snap.SessionID))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent diagnosis",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, closeStore, err := openStore(&cfg.Session)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx := cmd.Context()
		store.SweepExpired(ctx)

		sess := store.GetCurrentSession(ctx)
		if sess == nil {
			fmt.Println("No diagnosis on record.")
			return nil
		}

		fmt.Printf("Session %s\n", sess.ID)
		fmt.Printf("  plant:  %s\n", sess.PlantCategory)
		fmt.Printf("  status: %s\n", sess.Status)
		if sess.FailureReason != "" {
			fmt.Printf("  error:  %s\n", sess.FailureReason)
		}
		for _, prediction := range sess.Predictions {
			fmt.Printf("  prediction: %s (%.1f%%)\n", prediction.Label, prediction.Confidence*100)
		}

		if items := store.GetEnrichment(ctx, sess.ID); items != nil {
			fmt.Println()
			printResults(items)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the stored diagnosis",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, closeStore, err := openStore(&cfg.Session)
		if err != nil {
			return err
		}
		defer closeStore()

		store.ClearSession(cmd.Context())
		store.SweepExpired(cmd.Context())
		fmt.Println("Diagnosis cleared.")
		return nil
	},
}

func openStore(cfg *config.SessionConfig) (*session.Store, func(), error) {
	path := dbFlag
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(home, ".plantmd", "diagnosis.db")
	}

	backend, err := cache.NewSQLiteAdapter(path)
	if err != nil {
		return nil, nil, err
	}
	return session.NewStore(backend, cfg), func() { backend.Close() }, nil
}

func readImage(path string) (providers.ImageUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return providers.ImageUpload{}, fmt.Errorf("read image: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return providers.ImageUpload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// watchProgress redraws the progress line until the run finishes.
func watchProgress(ctx context.Context, p *pipeline.Pipeline, done <-chan error) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			snap := p.Snapshot()
			fmt.Printf("\r[%3d%%] %-60s", snap.Progress, snap.CurrentStep)
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap := p.Snapshot()
			fmt.Printf("\r[%3d%%] %-60s", snap.Progress, snap.CurrentStep)
		}
	}
}

func printResults(items []entities.EnrichedDisease) {
	if len(items) == 0 {
		fmt.Println("No treatment information available.")
		return
	}

	for i, item := range items {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s (%.1f%% confidence)\n", item.DiseaseName, item.ConfidencePercent)
		if item.ScientificName != "" {
			fmt.Printf("  scientific name: %s\n", item.ScientificName)
		}
		if item.Category != "" {
			fmt.Printf("  category:        %s\n", item.Category)
		}
		if item.RiskFactor != "" {
			fmt.Printf("  risk:            %s\n", item.RiskFactor)
		}
		if len(item.AffectedPlants) > 0 {
			fmt.Printf("  affects:         %s\n", strings.Join(item.AffectedPlants, ", "))
		}
		if len(item.CureSteps) > 0 {
			fmt.Println("  treatment:")
			for _, step := range item.CureSteps {
				fmt.Printf("    - %s\n", step)
			}
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
