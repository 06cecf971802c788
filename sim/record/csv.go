// Package record persists simulation outputs for downstream analysis: the
// chronological event log as CSV with a YAML sidecar header, and events plus
// final statistics as a SQLite database.
package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/memsim/sim"
)

// EventLogHeader captures run metadata for an exported event log.
type EventLogHeader struct {
	Version        int    `yaml:"event_log_version"`
	CreatedAt      string `yaml:"created_at,omitempty"`
	RAMSizeBytes   int64  `yaml:"ram_size_bytes"`
	BlockSizeBytes int64  `yaml:"block_size_bytes"`
	CapacityBlocks int    `yaml:"capacity_blocks"`
	EventCount     int    `yaml:"event_count"`
	TracePath      string `yaml:"trace_path,omitempty"`
}

// EventLog combines header and events for a complete exported log.
type EventLog struct {
	Header EventLogHeader
	Events []sim.Event
}

// CSV column headers for the event log format.
var eventColumns = []string{
	"step", "node_index", "type", "tensor_id",
	"block_addr", "block_size", "shared_with", "is_write",
}

// NewEventLogHeader fills a header from the run's configuration.
func NewEventLogHeader(cfg sim.Config, eventCount int, tracePath string) *EventLogHeader {
	return &EventLogHeader{
		Version:        1,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		RAMSizeBytes:   cfg.RAMSizeBytes,
		BlockSizeBytes: cfg.BlockSizeBytes,
		CapacityBlocks: cfg.Capacity(),
		EventCount:     eventCount,
		TracePath:      tracePath,
	}
}

// DefaultEventLogPaths returns xid-stamped sibling file names for a header
// and data pair, used when the caller does not name the artifacts.
func DefaultEventLogPaths() (headerPath, dataPath string) {
	id := xid.New().String()
	return fmt.Sprintf("memsim_events_%s.yaml", id), fmt.Sprintf("memsim_events_%s.csv", id)
}

// ExportEventLog writes the log header (YAML) and data (CSV) to separate
// files. Addresses use decimal formatting so the data round-trips through
// ParseUint without a base prefix.
func ExportEventLog(header *EventLogHeader, events []sim.Event, headerPath, dataPath string) error {
	// Write header YAML
	headerData, err := yaml.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling event log header: %w", err)
	}
	if err := os.WriteFile(headerPath, headerData, 0644); err != nil {
		return fmt.Errorf("writing event log header: %w", err)
	}

	// Write data CSV
	file, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("creating event log data file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(eventColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, e := range events {
		row := []string{
			strconv.FormatInt(e.Step, 10),
			strconv.Itoa(e.NodeIndex),
			string(e.Type),
			strconv.Itoa(int(e.TensorID)),
			strconv.FormatUint(e.BlockAddr, 10),
			strconv.FormatInt(e.BlockSize, 10),
			joinTensorIDs(e.SharedWith),
			strconv.FormatBool(e.Write),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	return nil
}

// LoadEventLog reads an event log header (YAML) and data (CSV) pair back.
func LoadEventLog(headerPath, dataPath string) (*EventLog, error) {
	headerData, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, fmt.Errorf("reading event log header: %w", err)
	}
	var header EventLogHeader
	if err := yaml.Unmarshal(headerData, &header); err != nil {
		return nil, fmt.Errorf("parsing event log header: %w", err)
	}

	file, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("opening event log data: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var events []sim.Event
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if len(row) < len(eventColumns) {
			return nil, fmt.Errorf("CSV row has %d columns, expected %d", len(row), len(eventColumns))
		}
		events = append(events, parseEventRow(row))
	}

	return &EventLog{Header: header, Events: events}, nil
}

func parseEventRow(row []string) sim.Event {
	step, _ := strconv.ParseInt(row[0], 10, 64)
	nodeIndex, _ := strconv.Atoi(row[1])
	tensorID, _ := strconv.Atoi(row[3])
	blockAddr, _ := strconv.ParseUint(row[4], 10, 64)
	blockSize, _ := strconv.ParseInt(row[5], 10, 64)
	write, _ := strconv.ParseBool(row[7])

	return sim.Event{
		Step:       step,
		NodeIndex:  nodeIndex,
		Type:       sim.EventType(row[2]),
		TensorID:   sim.TensorID(tensorID),
		BlockAddr:  blockAddr,
		BlockSize:  blockSize,
		SharedWith: splitTensorIDs(row[6]),
		Write:      write,
	}
}

// joinTensorIDs renders an id list as a pipe-separated cell, empty for none.
func joinTensorIDs(ids []sim.TensorID) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, "|")
}

// splitTensorIDs parses a pipe-separated cell back into an id list.
func splitTensorIDs(cell string) []sim.TensorID {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, "|")
	ids := make([]sim.TensorID, 0, len(parts))
	for _, p := range parts {
		id, _ := strconv.Atoi(p)
		ids = append(ids, sim.TensorID(id))
	}
	return ids
}
