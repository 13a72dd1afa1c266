package report

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/kvit-s/veribench/internal/model"
)

func TestBuildRunSetXML_RoundTripsRunFields(t *testing.T) {
	bench := &model.Benchmark{Name: "mytool-suite", ToolName: "mytool", ToolVersion: "1.2", TimestampHuman: "2026-07-30T10:00:00"}
	rs := &model.RunSet{
		Name: "reachability",
		Runs: []*model.Run{
			{
				Identifier:   "a_true-unreach-call.c",
				SourceFiles:  []string{"a_true-unreach-call.c"},
				PropertyFile: "unreach-call.prp",
				Status:       "true",
				Category:     model.CategoryCorrect,
				CPUTime:      1500 * time.Millisecond,
				WallTime:     2 * time.Second,
				MemUsage:     104857600,
				Host:         "worker-1",
				Columns:      []model.Column{{Title: "status", Value: "true"}},
			},
		},
	}

	doc := buildRunSetXML(bench, rs)
	if len(doc.Runs) != 1 {
		t.Fatalf("Runs = %d, want 1", len(doc.Runs))
	}
	entry := doc.Runs[0]
	if entry.Name != "a_true-unreach-call.c" || entry.Category != "correct" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.CPUTime != "1.50s" || entry.WallTime != "2.00s" {
		t.Errorf("durations = %q / %q", entry.CPUTime, entry.WallTime)
	}

	body, err := marshalRunSetXML(doc)
	if err != nil {
		t.Fatalf("marshalRunSetXML: %v", err)
	}
	if !strings.HasPrefix(string(body), xml.Header) {
		t.Errorf("missing xml header: %s", body[:30])
	}

	var roundTrip xmlRunSetResult
	// strip the header the way a consumer parsing this file would
	if err := xml.Unmarshal(body[len(xml.Header):], &roundTrip); err != nil {
		t.Fatalf("unmarshal produced xml: %v", err)
	}
	if len(roundTrip.Runs) != 1 || roundTrip.Runs[0].Status != "true" {
		t.Errorf("round trip = %+v", roundTrip)
	}
}

func TestJoinFiles(t *testing.T) {
	if got := joinFiles([]string{"a.c", "b.h"}); got != "a.c b.h" {
		t.Errorf("joinFiles = %q", got)
	}
	if got := joinFiles(nil); got != "" {
		t.Errorf("joinFiles(nil) = %q, want empty", got)
	}
}
