package loom_test

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/peterbourgon/diskv"

	"github.com/hscells/loom"
	"github.com/hscells/loom/frame"
)

func TestDiskvStoreRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "loom_store")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p, err := loom.NewPredictor(numericDefinition(), quiet())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Learn(numericFrame(t)); err != nil {
		t.Fatal(err)
	}

	store := loom.NewDiskvStore(diskv.New(diskv.Options{
		BasePath:     dir,
		CacheSizeMax: 1024 * 1024,
	}))
	if err := store.Write(p.ID, p); err != nil {
		t.Fatal(err)
	}
	restored, err := store.Read(p.ID)
	if err != nil {
		t.Fatal(err)
	}

	when := frame.New()
	if err := when.AddColumn("x", frame.FloatColumn([]float64{4})); err != nil {
		t.Fatal(err)
	}
	if err := when.AddColumn("y", frame.FloatColumn([]float64{8})); err != nil {
		t.Fatal(err)
	}
	a, err := p.Predict(when)
	if err != nil {
		t.Fatal(err)
	}
	b, err := restored.Predict(when)
	if err != nil {
		t.Fatal(err)
	}
	if a["z"].Actual[0] != b["z"].Actual[0] {
		t.Fatalf("restored predictor predicts %v, original %v", b["z"].Actual[0], a["z"].Actual[0])
	}
}
