package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/rotarytools/grantcalc/internal/api"
	"github.com/rotarytools/grantcalc/internal/config"
	"github.com/rotarytools/grantcalc/internal/database"
	"github.com/rotarytools/grantcalc/internal/domain"
	"github.com/rotarytools/grantcalc/internal/engine"
	"github.com/rotarytools/grantcalc/internal/export"
	"github.com/rotarytools/grantcalc/internal/project"
	"github.com/rotarytools/grantcalc/internal/report"
	"github.com/rotarytools/grantcalc/internal/snapshot"
	"github.com/rotarytools/grantcalc/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "grantcalc",
		Usage: "Rotary Global Grant funding calculator and compliance service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the periodic revalidation worker",
				Action: runServe,
			},
			{
				Name:  "calculate",
				Usage: "calculate a funding plan from a JSON inputs file and print the result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "funding inputs or planner document JSON `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "pdf",
						Usage: "also write a PDF report to `PATH`",
					},
					&cli.StringFlag{
						Name:  "xlsx",
						Usage: "also write an Excel report to `PATH`",
					},
				},
				Action: runCalculate,
			},
			{
				Name:  "import",
				Usage: "import a planner document saved by the desktop tool",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "planner document JSON `FILE`",
						Required: true,
					},
				},
				Action: runImport,
			},
			{
				Name:   "export",
				Usage:  "recalculate all saved projects and rewrite the dashboard spreadsheet",
				Action: runExport,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServe(c *cli.Context) error {
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	cfg := config.Load()

	pool, projects, snapshots, err := connectServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	var hook worker.AfterRunHook
	if cfg.SheetsExportEnabled() {
		writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredsJSON)
		if err != nil {
			return fmt.Errorf("creating sheets writer: %w", err)
		}
		hook = export.NewService(writer)
		slog.Info("sheets export enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	} else {
		slog.Info("sheets export disabled")
	}

	revalidate := worker.NewRevalidateWorker(snapshots, cfg.RevalidateInterval, hook)
	go revalidate.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, mutating endpoints are unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, projects, snapshots, cfg.AdminAPIKey)

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func runCalculate(c *cli.Context) error {
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("reading inputs file: %w", err)
	}

	meta, in, err := parseCalculateInput(data)
	if err != nil {
		return err
	}

	breakdown, compliance, err := engine.Calculate(in)
	if err != nil {
		return err
	}
	result := domain.CalculationResult{Breakdown: breakdown, Compliance: compliance}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	fmt.Println(string(out))

	if path := c.String("pdf"); path != "" {
		doc, err := report.BuildPDF(meta, in, result)
		if err != nil {
			return fmt.Errorf("building PDF report: %w", err)
		}
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return fmt.Errorf("writing PDF report: %w", err)
		}
		log.Printf("Wrote %s", path)
	}
	if path := c.String("xlsx"); path != "" {
		doc, err := report.BuildExcel(meta, in, result)
		if err != nil {
			return fmt.Errorf("building Excel report: %w", err)
		}
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return fmt.Errorf("writing Excel report: %w", err)
		}
		log.Printf("Wrote %s", path)
	}
	return nil
}

// parseCalculateInput accepts either funding inputs JSON or a planner
// document from the desktop tool, detected by its application_number field.
func parseCalculateInput(data []byte) (report.Meta, domain.FundingInputs, error) {
	meta := report.Meta{GeneratedAt: time.Now().UTC()}

	var probe struct {
		ApplicationNumber string `json:"application_number"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.ApplicationNumber != "" {
		li, err := project.ParseLegacy(data)
		if err != nil {
			return report.Meta{}, domain.FundingInputs{}, err
		}
		meta.ApplicationNumber = li.ApplicationNumber
		meta.Country = li.Country
		return meta, li.Inputs, nil
	}

	var in domain.FundingInputs
	if err := json.Unmarshal(data, &in); err != nil {
		return report.Meta{}, domain.FundingInputs{}, fmt.Errorf("parsing inputs file: %w", err)
	}
	return meta, in, nil
}

func runImport(c *cli.Context) error {
	cfg := config.Load()

	pool, projects, _, err := connectServices(c.Context, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("reading planner document: %w", err)
	}

	p, err := projects.ImportLegacy(c.Context, data)
	if err != nil {
		return err
	}
	log.Printf("Imported project %s (%s)", p.ApplicationNumber, p.ID)
	return nil
}

func runExport(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.SheetsExportEnabled() {
		return errors.New("SHEETS_SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON must be set")
	}

	pool, _, snapshots, err := connectServices(c.Context, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	writer, err := export.NewSheetsWriter(c.Context, cfg.SheetsSpreadsheetID, cfg.GoogleCredsJSON)
	if err != nil {
		return fmt.Errorf("creating sheets writer: %w", err)
	}

	runs, err := snapshots.GenerateAll(c.Context, utcToday())
	if err != nil {
		return err
	}
	if err := export.NewService(writer).Export(c.Context, runs); err != nil {
		return err
	}
	log.Printf("Exported %d projects", len(runs))
	return nil
}

func connectServices(ctx context.Context, cfg config.Config) (*pgxpool.Pool, *project.Service, *snapshot.Service, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("opening migrations: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrations); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	projects := project.NewService(project.NewPgRepository(pool))
	snapshots := snapshot.NewService(projects, snapshot.NewPgRepository(pool))
	return pool, projects, snapshots, nil
}

func utcToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
