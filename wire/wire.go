// Package wire is a compact binary encoding for {columns, rows} result
// sets, built directly on protobuf's wire format (no generated message
// type — see DESIGN.md for why). The cache and store/snapshot packages
// both use it to get a value they can hand to Redis/Mongo without
// reaching for encoding/json.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldColumns protowire.Number = 1
	fieldRows    protowire.Number = 2
	fieldCells   protowire.Number = 1 // within a Row submessage
)

// Encode serializes a result set's columns and rows into a protobuf
// wire-format byte string: repeated string columns (field 1), repeated
// length-delimited Row submessages (field 2), each itself a repeated
// string of cell values (field 1).
func Encode(columns []string, rows [][]string) []byte {
	var b []byte
	for _, col := range columns {
		b = protowire.AppendTag(b, fieldColumns, protowire.BytesType)
		b = protowire.AppendString(b, col)
	}
	for _, row := range rows {
		var rowBytes []byte
		for _, cell := range row {
			rowBytes = protowire.AppendTag(rowBytes, fieldCells, protowire.BytesType)
			rowBytes = protowire.AppendString(rowBytes, cell)
		}
		b = protowire.AppendTag(b, fieldRows, protowire.BytesType)
		b = protowire.AppendBytes(b, rowBytes)
	}
	return b
}

// Decode parses bytes produced by Encode back into columns and rows.
func Decode(data []byte) ([]string, [][]string, error) {
	var columns []string
	var rows [][]string
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, nil, fmt.Errorf("wire: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch {
		case num == fieldColumns && typ == protowire.BytesType:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return nil, nil, fmt.Errorf("wire: bad column string: %w", protowire.ParseError(m))
			}
			columns = append(columns, s)
			data = data[m:]
		case num == fieldRows && typ == protowire.BytesType:
			rowBytes, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, nil, fmt.Errorf("wire: bad row bytes: %w", protowire.ParseError(m))
			}
			data = data[m:]
			row, err := decodeRow(rowBytes)
			if err != nil {
				return nil, nil, err
			}
			rows = append(rows, row)
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, nil, fmt.Errorf("wire: bad field: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return columns, rows, nil
}

func decodeRow(data []byte) ([]string, error) {
	var cells []string
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("wire: bad row tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		if num == fieldCells && typ == protowire.BytesType {
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return nil, fmt.Errorf("wire: bad cell string: %w", protowire.ParseError(m))
			}
			cells = append(cells, s)
			data = data[m:]
			continue
		}
		m := protowire.ConsumeFieldValue(num, typ, data)
		if m < 0 {
			return nil, fmt.Errorf("wire: bad row field: %w", protowire.ParseError(m))
		}
		data = data[m:]
	}
	return cells, nil
}
