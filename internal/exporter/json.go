package exporter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"pickstats/internal/recordset"
)

// WriteJSONRecords writes the table as an array of row objects. Keys follow
// column order, numeric cells are JSON numbers and NaN becomes null.
func WriteJSONRecords(path string, table *recordset.Table) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	buf := bufio.NewWriter(file)
	if err := EncodeJSONRecords(buf, table); err != nil {
		file.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return file.Close()
}

// EncodeJSONRecords streams the row objects of table to w
func EncodeJSONRecords(w io.Writer, table *recordset.Table) error {
	if table == nil {
		table = recordset.Empty()
	}

	keys := make([][]byte, table.Width())
	for j, name := range table.Names() {
		k, err := json.Marshal(name)
		if err != nil {
			return fmt.Errorf("failed to encode column %q: %w", name, err)
		}
		keys[j] = k
	}

	var out bytes.Buffer
	out.WriteByte('[')
	for i := 0; i < table.Len(); i++ {
		if i > 0 {
			out.WriteByte(',')
		}
		out.WriteString("\n  {")
		for j := range keys {
			if j > 0 {
				out.WriteString(", ")
			}
			out.Write(keys[j])
			out.WriteString(": ")
			if err := writeJSONValue(&out, table.ColumnAt(j).Value(i)); err != nil {
				return err
			}
		}
		out.WriteByte('}')

		if out.Len() > 32*1024 {
			if _, err := w.Write(out.Bytes()); err != nil {
				return fmt.Errorf("failed to write records: %w", err)
			}
			out.Reset()
		}
	}
	if table.Len() > 0 {
		out.WriteByte('\n')
	}
	out.WriteString("]\n")
	if _, err := w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		buf.WriteString("null")
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	buf.Write(b)
	return nil
}

// WriteReport writes v as indented JSON
func WriteReport(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
