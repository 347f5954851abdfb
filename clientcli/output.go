package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, result *UploadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatFiles(w io.Writer, files []FileInfo) error
	FormatBucket(w io.Writer, entries []ObjectInfo) error
	FormatError(w io.Writer, err error) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats an upload result as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Uploaded: %s (%s, %d part(s))\n", result.RemotePath, formatSize(result.Size), result.Parts)
		_, _ = fmt.Fprintf(w, "  ID: %s\n", result.ID)
	}
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.ID, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.ID)
		}
	}
	return nil
}

// FormatFiles formats file records as human-readable text.
func (f *HumanFormatter) FormatFiles(w io.Writer, files []FileInfo) error {
	if len(files) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
		return nil
	}

	maxNameLen := 8 // "FILENAME"
	for i := range files {
		if len(files[i].Filename) > maxNameLen {
			maxNameLen = len(files[i].Filename)
		}
	}
	if maxNameLen > 40 {
		maxNameLen = 40
	}

	_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %s\n", "ID", maxNameLen, "FILENAME", "SIZE", "CREATED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", 36), strings.Repeat("-", maxNameLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	var total int64
	for i := range files {
		item := &files[i]
		name := item.Filename
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		total += item.SizeBytes
		_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %s\n",
			item.ID,
			maxNameLen,
			name,
			formatSize(item.SizeBytes),
			item.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s) (%s total)\n", len(files), formatSize(total))
	return nil
}

// FormatBucket formats bucket entries as human-readable text.
func (f *HumanFormatter) FormatBucket(w io.Writer, entries []ObjectInfo) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No objects found")
		return nil
	}

	maxKeyLen := 3 // "KEY"
	for i := range entries {
		if len(entries[i].Key) > maxKeyLen {
			maxKeyLen = len(entries[i].Key)
		}
	}
	if maxKeyLen > 60 {
		maxKeyLen = 60
	}

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxKeyLen, "KEY", "SIZE", "MODIFIED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxKeyLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	var total int64
	for i := range entries {
		item := &entries[i]
		key := item.Key
		if len(key) > maxKeyLen {
			key = key[:maxKeyLen-3] + "..."
		}
		total += item.Size
		_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n",
			maxKeyLen,
			key,
			formatSize(item.Size),
			item.LastModified.Format("2006-01-02 15:04:05"),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d object(s) (%s total)\n", len(entries), formatSize(total))
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats an upload result as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{
			ID:      r.ID.String(),
			Deleted: r.Deleted,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatFiles formats file records as JSON.
func (f *JSONFormatter) FormatFiles(w io.Writer, files []FileInfo) error {
	return writeJSON(w, files)
}

// FormatBucket formats bucket entries as JSON.
func (f *JSONFormatter) FormatBucket(w io.Writer, entries []ObjectInfo) error {
	return writeJSON(w, entries)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
