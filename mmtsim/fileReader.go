package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	mmt "github.com/nsw-trigger/mmt_go/pkg"
)

// FileReader reads a stream of JSON encoded events, one value after the
// other.
type FileReader struct {
	File     *os.File
	decoder  *json.Decoder
	EvtCount int
}

func NewFileReader(file *os.File) *FileReader {
	return &FileReader{File: file, decoder: json.NewDecoder(file), EvtCount: -1}
}

func (f *FileReader) getNextEvent() (mmt.EventType, error) {
	var event mmt.EventType
	if err := f.decoder.Decode(&event); err != nil {
		if errors.Is(err, io.EOF) {
			return event, io.EOF
		}
		return event, fmt.Errorf("error decoding event %d: %w", f.EvtCount+1, err)
	}
	f.EvtCount++
	if f.EvtCount >= configuration.MaxEvents+configuration.Skip {
		if VerbosityLevel > 0 {
			logger.Info("Max events reached", "fileReader")
		}
		return event, io.EOF
	}
	if f.EvtCount < configuration.Skip {
		if VerbosityLevel > 0 {
			message := fmt.Sprintf("Skipping event %d with ID %d", f.EvtCount, event.EventID)
			logger.Info(message, "fileReader")
		}
		return f.getNextEvent()
	}
	if VerbosityLevel > 1 {
		message := fmt.Sprintf("Reading event %d with ID %d, %d records", f.EvtCount, event.EventID, len(event.Records))
		logger.Info(message, "fileReader")
	}
	return event, nil
}

func readEvents(fileReader *FileReader) ([]mmt.EventType, error) {
	events := make([]mmt.EventType, 0)
	for {
		event, err := fileReader.getNextEvent()
		if err != nil {
			if err == io.EOF {
				return events, nil
			}
			return events, err
		}
		events = append(events, event)
	}
}
