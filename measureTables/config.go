package main

import (
	"encoding/json"
	"fmt"
	"os"

	mmt "github.com/nsw-trigger/mmt_go/pkg"
)

func LoadConfiguration(filename string) (mmt.Configuration, error) {
	var config mmt.Configuration

	// Set default values
	config.MaxEvents = 1000000000
	config.Verbosity = 0
	config.Skip = 0
	config.NoDB = false
	config.DBDriver = "mysql"
	config.Host = "localhost"
	config.User = "mmtreader"
	config.Passwd = "readonly"
	config.DBName = "NSW_MM"
	config.RunNumber = 0
	config.NumWorkers = 1
	config.WriteData = true
	config.WriteTables = true
	config.CompressionLevel = 4
	config.WedgeSize = "L"
	config.Setup = "xxuvvuxx"
	config.IsLarge = true
	config.DLM = true
	config.H = 0.0009
	config.CTX = 2
	config.CTUV = 1
	config.UVError = 0.0035
	config.FillTables = true
	config.Tag = "nominal"

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config mmt.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Setup: %s, ybins %d, roi step %g", config.Setup, config.YBins, config.ROIStep), "config")
}
