package frame_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hscells/loom/frame"
)

func TestFromCSV(t *testing.T) {
	data := `x,y,label
1,2,a
3,4,b
5,6,a
`
	f, err := frame.FromCSV(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if f.Rows() != 3 {
		t.Fatalf("got %d rows, want 3", f.Rows())
	}
	if !reflect.DeepEqual(f.Names(), []string{"x", "y", "label"}) {
		t.Fatalf("got names %v", f.Names())
	}
	col, ok := f.Column("y")
	if !ok {
		t.Fatal("no column y")
	}
	floats, err := col.Floats()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(floats, []float64{2, 4, 6}) {
		t.Fatalf("got %v", floats)
	}
	labels, _ := f.Column("label")
	if !reflect.DeepEqual(labels.Strings(), []string{"a", "b", "a"}) {
		t.Fatalf("got %v", labels.Strings())
	}
}

func TestColumnCoercion(t *testing.T) {
	col := frame.Column{1, int64(2), 3.5, "4.5"}
	floats, err := col.Floats()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(floats, []float64{1, 2, 3.5, 4.5}) {
		t.Fatalf("got %v", floats)
	}
	if _, err := (frame.Column{"abc"}).Floats(); err == nil {
		t.Fatal("expected an error coercing a non-numeric string")
	}
}

func TestAddColumnRejectsRaggedRows(t *testing.T) {
	f := frame.New()
	if err := f.AddColumn("x", frame.FloatColumn([]float64{1, 2})); err != nil {
		t.Fatal(err)
	}
	if err := f.AddColumn("y", frame.FloatColumn([]float64{1})); err == nil {
		t.Fatal("expected an error for mismatched column length")
	}
	if err := f.AddColumn("x", frame.FloatColumn([]float64{3, 4})); err == nil {
		t.Fatal("expected an error for a duplicate column")
	}
}
