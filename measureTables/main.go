package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	mmt "github.com/nsw-trigger/mmt_go/pkg"
	"gonum.org/v1/gonum/spatial/r3"
)

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

type variant struct {
	Name  string
	Misal mmt.Align
	Corr  mmt.Align
}

func variants() []variant {
	return []variant{
		{Name: "nominal"},
		{Name: "misaligned", Misal: mmt.NewAlign(mmt.Misaligned, r3.Vec{Z: 0.1}, r3.Vec{Z: 0.0005})},
		{Name: "corrected", Corr: mmt.NewAlign(mmt.Corrected, r3.Vec{Z: 0.1}, r3.Vec{X: 0.0005, Y: 0.0002, Z: 0.0005})},
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	repeat := flag.Int("repeat", 3, "Number of builds per variant")
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

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		printConfiguration(configuration, logger)
	}

	var geo mmt.GeometryProvider
	if configuration.NoDB {
		if configuration.Geometry == nil {
			logger.Error("no_db is set but the configuration has no geometry")
			return
		}
		geo = configuration.Geometry
	} else {
		dbConn, err := mmt.ConnectToDatabase(configuration.DBDriver, configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			message := fmt.Errorf("Error connection to database: %w", err)
			logger.Error(message.Error())
			return
		}
		geo, err = mmt.LoadGeometry(dbConn, configuration.RunNumber)
		dbConn.Close()
		if err != nil {
			logger.Error(err.Error())
			return
		}
	}

	var last *mmt.Parameters
	for _, v := range variants() {
		par := configuration.ParPar()
		par.Misal = v.Misal
		par.Corr = v.Corr
		par.FillVal = true
		var total time.Duration
		for i := 0; i < *repeat; i++ {
			start := time.Now()
			last, err = mmt.NewParameters(par, configuration.Wedge(), geo)
			total += time.Since(start)
			if err != nil {
				logger.Error(fmt.Sprintf("%s: %v", v.Name, err))
				return
			}
		}
		fmt.Printf("(%s, %s) build time: %d ms per table set, %d denominator clamps\n",
			v.Name, par.PrintPars(nil), total.Milliseconds()/int64(max(*repeat, 1)), last.Diag.DenominatorClamps.Load())
	}

	if configuration.FileOut == "" {
		return
	}
	for compressionLevel := 0; compressionLevel < 10; compressionLevel++ {
		start := time.Now()
		writer, err := mmt.NewWriter(configuration.FileOut, compressionLevel)
		if err != nil {
			logger.Error(err.Error())
			return
		}
		if err := writer.WriteTables(last); err != nil {
			logger.Error(err.Error())
		}
		if err := writer.Close(); err != nil {
			logger.Error(err.Error())
		}
		duration := time.Since(start)
		fileInfo, err := os.Stat(configuration.FileOut)
		if err != nil {
			logger.Error(fmt.Sprintf("Error getting file info: %v", err))
			continue
		}
		fmt.Printf("(hdf5, comp %d) Time: %d ms, size %d bytes\n", compressionLevel, duration.Milliseconds(), fileInfo.Size())
	}
}
