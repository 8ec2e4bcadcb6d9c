package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	mmt "github.com/nsw-trigger/mmt_go/pkg"
	"github.com/pkg/profile"
)

var dbConn *sqlx.DB
var configuration mmt.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	cpuProfile := flag.Bool("cpuprofile", false, "Write a CPU profile to the working directory")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return
	}
	mmt.SetConfiguration(configuration)
	mmt.SetLogger(logger)

	if *cpuProfile || configuration.CPUProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	geo, err := loadGeometry()
	if err != nil {
		logger.Error(err.Error())
		return
	}

	start := time.Now()
	par, err := mmt.NewParameters(configuration.ParPar(), configuration.Wedge(), geo)
	if err != nil {
		message := fmt.Errorf("Error building parameters: %w", err)
		logger.Error(message.Error())
		return
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Tables built in %d ms", time.Since(start).Milliseconds())
		logger.Info(message, "main")
	}

	var events []mmt.EventType
	if configuration.FileIn != "" {
		file, err := os.Open(configuration.FileIn)
		if err != nil {
			message := fmt.Errorf("Error opening file: %w", err)
			logger.Error(message.Error())
			return
		}
		defer file.Close()

		events, err = readEvents(NewFileReader(file))
		if err != nil {
			message := fmt.Errorf("error reading events: %w", err)
			logger.Error(message.Error())
			return
		}
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Number of events: %d", len(events))
		logger.Info(message, "main")
	}

	start = time.Now()
	converted := mmt.ConvertEvents(par, events, configuration.NumWorkers)
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Converted %d events in %d ms", len(converted), time.Since(start).Milliseconds())
		logger.Info(message, "main")
	}

	if configuration.FileOut != "" && (configuration.WriteData || configuration.WriteTables) {
		if err := writeOutput(par, converted); err != nil {
			logger.Error(err.Error())
			return
		}
	}

	if configuration.Summary {
		summary := mmt.NewHitSummary(par.NPlanes())
		for _, ev := range converted {
			summary.Fill(ev)
		}
		for _, line := range summary.Report() {
			logger.Info(line, "summary")
		}
		if configuration.PlotDir != "" {
			if err := mmt.PlotHitSummary(summary, configuration.PlotDir); err != nil {
				logger.Error(err.Error())
			}
		}
	}

	if configuration.PlotDir != "" && par.TablesBuilt() {
		if err := mmt.PlotROITheta(par, filepath.Join(configuration.PlotDir, "roi_theta.png")); err != nil {
			logger.Error(err.Error())
		}
		if err := mmt.PlotDTFactors(par, filepath.Join(configuration.PlotDir, "dt_factors.png")); err != nil {
			logger.Error(err.Error())
		}
	}

	logDiagnostics(par)
}

func loadGeometry() (mmt.GeometryProvider, error) {
	if configuration.NoDB {
		if configuration.Geometry == nil {
			return nil, fmt.Errorf("no_db is set but the configuration has no geometry")
		}
		return configuration.Geometry, nil
	}

	var err error
	dbConn, err = mmt.ConnectToDatabase(configuration.DBDriver, configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
	if err != nil {
		return nil, fmt.Errorf("Error connection to database: %w", err)
	}
	defer dbConn.Close()

	geo, err := mmt.LoadGeometry(dbConn, configuration.RunNumber)
	if err != nil {
		return nil, fmt.Errorf("Error loading geometry: %w", err)
	}
	return geo, nil
}

func writeOutput(par *mmt.Parameters, converted []mmt.HitEvent) (err error) {
	writer, err := mmt.NewWriter(configuration.FileOut, configuration.CompressionLevel)
	if err != nil {
		return fmt.Errorf("Error creating writer: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("Error closing %s: %w", configuration.FileOut, cerr)
		}
	}()

	start := time.Now()
	if configuration.WriteTables {
		if err := writer.WriteTables(par); err != nil {
			return fmt.Errorf("Error writing tables: %w", err)
		}
	}
	if configuration.WriteData {
		for _, ev := range converted {
			if err := writer.WriteEvent(&ev); err != nil {
				return err
			}
		}
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Total time writing: %d ms", time.Since(start).Milliseconds())
		logger.Info(message, "main")
	}
	return nil
}

func logDiagnostics(par *mmt.Parameters) {
	d := par.Diag
	if d.DenominatorClamps.Load() > 0 || d.NumeratorClamps.Load() > 0 {
		message := fmt.Sprintf("least squares clamps: %d denominators, %d sums", d.DenominatorClamps.Load(), d.NumeratorClamps.Load())
		logger.Warning(message, "main")
	}
	if d.StripClamps.Load() > 0 {
		logger.Warning(fmt.Sprintf("%d strips out of range set to 0", d.StripClamps.Load()), "main")
	}
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("%d records below charge threshold", d.BelowThreshold.Load()), "main")
	}
}
