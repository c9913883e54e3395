// Package markers loads per-channel display names from a markers.csv file.
// Missing or mismatched marker files never fail the run; the caller always
// receives a usable name list.
package markers

import (
	"encoding/csv"
	"fmt"
	"os"
)

// nameColumns are the accepted CSV header names for the marker column, in
// priority order.
var nameColumns = []string{"marker_name", "marker", "name", "channel_name"}

// DefaultNames returns the fallback channel names Channel_0 .. Channel_n-1.
func DefaultNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Channel_%d", i)
	}
	return names
}

// LoadNames reads marker names from the CSV at path. When path is empty,
// the file is absent or unreadable, or the entry count does not match the
// expected channel count, the default names are returned instead.
func LoadNames(path string, channels int) []string {
	if path == "" {
		return DefaultNames(channels)
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Printf("Warning: could not read markers file %s: %v. Using default names.\n", path, err)
		return DefaultNames(channels)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		fmt.Printf("Warning: could not parse markers file %s. Using default names.\n", path)
		return DefaultNames(channels)
	}

	// Locate the marker column in the header row
	col := -1
	for _, want := range nameColumns {
		for i, header := range records[0] {
			if header == want {
				col = i
				break
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		fmt.Printf("Warning: markers file %s has no marker name column. Using default names.\n", path)
		return DefaultNames(channels)
	}

	var names []string
	for _, record := range records[1:] {
		if col < len(record) && record[col] != "" {
			names = append(names, record[col])
		}
	}

	if len(names) != channels {
		fmt.Printf("Warning: markers file has %d entries but expected %d. Using default names.\n",
			len(names), channels)
		return DefaultNames(channels)
	}
	return names
}
