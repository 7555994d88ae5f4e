package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/icl-sdk/icl-go/pkg/log"
)

// RunExport writes the matching events of path as jsonl or csv to output,
// or to stdout when output is empty.
func RunExport(path, format, output string, filter log.Filter) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return export(path, format, filter, w)
}

func export(path, format string, filter log.Filter, w io.Writer) error {
	switch format {
	case "jsonl":
		return exportJSONL(path, filter, w)
	case "csv":
		return exportCSV(path, filter, w)
	}
	return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
}

func exportJSONL(path string, filter log.Filter, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return eachEvent(path, filter, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

func exportCSV(path string, filter log.Filter, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "connection_id", "direction", "layer", "category",
		"device_id", "type", "command", "message_id", "duration_us", "errors"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return eachEvent(path, filter, func(event log.Event) error {
		deviceID := ""
		if event.DeviceID != nil {
			deviceID = strconv.Itoa(*event.DeviceID)
		}
		eventType := strings.ToLower(eventLabel(event))
		var command, msgID, duration, errs string
		if m := event.Message; m != nil {
			eventType = strings.ToLower(m.Type.String())
			command = m.Command
			msgID = strconv.FormatUint(uint64(m.MessageID), 10)
			if m.Duration != nil {
				duration = strconv.FormatInt(m.Duration.Microseconds(), 10)
			}
			errs = strings.Join(m.Errors, "; ")
		}

		row := []string{
			event.Timestamp.UTC().Format(timeLayout),
			event.ConnectionID,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			deviceID,
			eventType,
			command,
			msgID,
			duration,
			errs,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
}
