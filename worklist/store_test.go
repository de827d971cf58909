package worklist

import (
	"testing"

	"github.com/spf13/afero"
)

func TestStorePutSearchRemoveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := Open(fs, "/worklist.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	item := Item{
		AccessionNumber:     "ACC001",
		PatientID:           "PAT001",
		PatientName:         "Doe^Jane",
		Modality:            "CT",
		ScheduledStationAET: "CTSCAN1",
	}
	if err := store.Put(item); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := store.Get("ACC001")
	if !ok || got.PatientName != "Doe^Jane" {
		t.Fatalf("Get returned %+v, ok=%v", got, ok)
	}

	reopened, err := Open(fs, "/worklist.json")
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	if _, ok := reopened.Get("ACC001"); !ok {
		t.Fatalf("item did not survive persistence")
	}

	if err := store.Remove("ACC001"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := store.Get("ACC001"); ok {
		t.Fatalf("item still present after Remove")
	}
}

func TestSearchWildcardMatching(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, _ := Open(fs, "/worklist.json")
	store.Put(Item{AccessionNumber: "A1", PatientName: "Doe^Jane", Modality: "CT"})
	store.Put(Item{AccessionNumber: "A2", PatientName: "Doe^John", Modality: "MR"})
	store.Put(Item{AccessionNumber: "A3", PatientName: "Smith^Amy", Modality: "CT"})

	results := store.Search(Query{PatientName: "Doe*"})
	if len(results) != 2 {
		t.Fatalf("expected 2 matches for Doe*, got %d", len(results))
	}

	results = store.Search(Query{Modality: "CT"})
	if len(results) != 2 {
		t.Fatalf("expected 2 CT matches, got %d", len(results))
	}

	results = store.Search(Query{})
	if len(results) != 3 {
		t.Fatalf("expected empty query to match all 3, got %d", len(results))
	}
}
