// Package export writes gateway records to files: devices as CSV in the
// layout of the gateway's bulk import, codec scripts as JavaScript files and
// any document as JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	milesight "github.com/corgan2222/milesight-gateway-api"
)

// Format selects the encoding of [WriteDocument].
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a name such as "yml" or "JSON" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}

	return "", fmt.Errorf("unknown format %q", s)
}

// missing is written for absent or empty device fields.
const missing = "-"

var deviceHeader = []string{
	"name", "description", "devEUI", "deviceprofile", "application", "payloadcodec",
	"fport", "appkey", "devaddr", "nwkskey", "appskey",
}

// deviceFields are the record keys of the first columns of deviceHeader.
var deviceFields = []string{
	"name", "description", "devEUI", "profileName", "appName", "payloadName",
	"fPort", "appKey",
}

// WriteDevicesCSV writes devices in the gateway's device import layout.
// The ABP columns are not exported by the gateway and are filled with the
// import defaults.
func WriteDevicesCSV(w io.Writer, devices []milesight.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(deviceHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, d := range devices {
		row := make([]string, 0, len(deviceHeader))
		for _, key := range deviceFields {
			row = append(row, value(d, key))
		}
		row = append(row, "1", "", "")

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write device %s: %w", d.String("devEUI"), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveDevicesCSV writes devices to path, creating its directory.
func SaveDevicesCSV(path string, devices []milesight.Record) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return WriteDevicesCSV(f, devices)
}

// value returns the field as text, or [missing] for absent, empty, zero and
// false values.
func value(r milesight.Record, key string) string {
	switch v := r[key].(type) {
	case nil:
		return missing
	case string:
		if v == "" {
			return missing
		}
	case float64:
		if v == 0 {
			return missing
		}
	case bool:
		if !v {
			return missing
		}
	case []any:
		if len(v) == 0 {
			return missing
		}
	case map[string]any:
		if len(v) == 0 {
			return missing
		}
	}

	return r.String(key)
}

// SaveCodecScripts writes the encoder and decoder of every codec to
// <dir>/<name>/<name>_encoder.js and <name>_decoder.js. Escaped newlines in
// the scripts are expanded.
//
// Codecs without a usable name are skipped; their errors are joined and
// returned after the remaining codecs have been written.
func SaveCodecScripts(dir string, codecs []milesight.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var errs []error
	for i, codec := range codecs {
		name := codec.String("name")
		if !validName(name) {
			errs = append(errs, fmt.Errorf("codec %d: invalid name %q", i, name))
			continue
		}

		if err := saveCodec(filepath.Join(dir, name), name, codec); err != nil {
			errs = append(errs, fmt.Errorf("codec %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

func saveCodec(dir, name string, codec milesight.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	scripts := map[string]string{
		name + "_encoder.js": codec.String("encoderScript"),
		name + "_decoder.js": codec.String("decoderScript"),
	}
	for file, script := range scripts {
		script = strings.ReplaceAll(script, `\n`, "\n")
		if err := os.WriteFile(filepath.Join(dir, file), []byte(script), 0o644); err != nil {
			return err
		}
	}

	return nil
}

// validName rejects names that would leave the export directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// WriteDocument encodes v as indented JSON or YAML.
func WriteDocument(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	return fmt.Errorf("unknown format %q", format)
}

// SaveDocument writes v to path in format, creating its directory.
func SaveDocument(path string, v any, format Format) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return WriteDocument(f, v, format)
}
