package seed

import (
	"os"
	"path/filepath"
	"testing"

	"missionctl/core"
)

func TestDefaultDataset(t *testing.T) {
	records, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) == 0 {
		t.Fatal("embedded dataset is empty")
	}
	if records[0].ID != "intern001" {
		t.Fatalf("first record %q, document order must be preserved", records[0].ID)
	}
	for _, rec := range records {
		if rec.Badge == "" {
			t.Fatalf("intern %s has no badge", rec.ID)
		}
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	doc := []byte(`{"interns":[
		{"id":"a","name":"A","joinDate":"2024-01-01"},
		{"id":"a","name":"B","joinDate":"2024-01-02"}
	]}`)
	if _, err := Parse(doc); err == nil {
		t.Fatal("duplicate ids accepted")
	}
}

func TestParseRejectsNegatives(t *testing.T) {
	doc := []byte(`{"interns":[{"id":"a","name":"A","joinDate":"2024-01-01","totalDonations":-1}]}`)
	if _, err := Parse(doc); err == nil {
		t.Fatal("negative totals accepted")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	doc := []byte(`{"interns":[{"id":"x","name":"X","joinDate":"2024-06-01","badge":"rookie","achievements":[]}]}`)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}
	records, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != core.InternID("x") {
		t.Fatalf("unexpected records: %+v", records)
	}
}
