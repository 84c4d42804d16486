package wire

import (
	"reflect"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	columns := []string{"name", "pop"}
	rows := [][]string{{"A", "100"}, {"B", "50"}}

	data := Encode(columns, rows)
	gotCols, gotRows, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(gotCols, columns) {
		t.Fatalf("columns = %v, want %v", gotCols, columns)
	}
	if !reflect.DeepEqual(gotRows, rows) {
		t.Fatalf("rows = %v, want %v", gotRows, rows)
	}
}

func TestEncodeDecode_Empty(t *testing.T) {
	data := Encode(nil, nil)
	cols, rows, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 0 || len(rows) != 0 {
		t.Fatalf("expected empty result, got cols=%v rows=%v", cols, rows)
	}
}

func TestDecode_CorruptData(t *testing.T) {
	if _, _, err := Decode([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected an error decoding corrupt data")
	}
}

func TestEncodeDecode_EmptyCells(t *testing.T) {
	columns := []string{"name"}
	rows := [][]string{{""}}
	data := Encode(columns, rows)
	gotCols, gotRows, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(gotCols, columns) || !reflect.DeepEqual(gotRows, rows) {
		t.Fatalf("round trip mismatch: cols=%v rows=%v", gotCols, gotRows)
	}
}
