package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opd-ai/filenode/store"
)

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(closeStore)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigShow(t *testing.T) {
	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show returned error: %v", err)
	}
	if !strings.Contains(out, "chunk_size: 1024") {
		t.Fatalf("expected default chunk size in output, got: %s", out)
	}
}

func TestConfigInitRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "filenode.yaml")
	if _, err := execute(t, "config", "init", path, "--log-level", "debug"); err != nil {
		t.Fatalf("config init returned error: %v", err)
	}

	out, err := execute(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show returned error: %v", err)
	}
	if !strings.Contains(out, "level: debug") {
		t.Fatalf("expected saved log level, got: %s", out)
	}
}

func TestInvalidLogLevelRejected(t *testing.T) {
	if _, err := execute(t, "config", "show", "--log-level", "loud"); err == nil {
		t.Fatal("expected an error for an unknown log level")
	}
}

func TestTransferSingleRun(t *testing.T) {
	t.Setenv("FILENODE_CHAOS_DROP_EVERY", "4")
	t.Setenv("FILENODE_CHAOS_DISCONNECT_PROBABILITY", "0.1")

	out, err := execute(t, "transfer", "--size", "20000", "--seed", "3", "--dump", "json", "--log-level", "error")
	if err != nil {
		t.Fatalf("transfer returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "chaos-3") {
		t.Errorf("expected run id in output, got: %s", out)
	}
	if !strings.Contains(out, "Completed") {
		t.Errorf("expected a completed run, got: %s", out)
	}
	if !strings.Contains(out, `"event_type"`) {
		t.Errorf("expected a JSON timeline dump, got: %s", out)
	}
}

func TestTransferManyPersistsTimeline(t *testing.T) {
	t.Setenv("FILENODE_CHAOS_DROP_EVERY", "5")
	t.Setenv("FILENODE_CHAOS_WRONG_OFFSET_PROBABILITY", "0.1")
	db := filepath.Join(t.TempDir(), "timeline.db")

	out, err := execute(t, "transfer", "--runs", "3", "--parallel", "2", "--size", "10000",
		"--seed", "11", "--store", db, "--log-level", "error")
	if err != nil {
		t.Fatalf("transfer returned error: %v\n%s", err, out)
	}
	for _, id := range []string{"chaos-0", "chaos-1", "chaos-2"} {
		if !strings.Contains(out, id) {
			t.Errorf("missing %s in report: %s", id, out)
		}
	}

	out, err = execute(t, "timeline", "show", "--store", db, "--limit", "1", "--format", "yaml")
	if err != nil {
		t.Fatalf("timeline show returned error: %v", err)
	}
	if !strings.Contains(out, "event_type: Start") {
		t.Errorf("expected the first persisted entry to be a Start, got: %s", out)
	}

	out, err = execute(t, "timeline", "prune", "--store", db, "--up-to", "1000000")
	if err != nil {
		t.Fatalf("timeline prune returned error: %v", err)
	}
	if !strings.Contains(out, "remaining=0") {
		t.Errorf("expected every entry pruned, got: %s", out)
	}
}

func TestRepeatedRunsContinueStoredSequence(t *testing.T) {
	t.Setenv("FILENODE_CHAOS_DROP_EVERY", "4")
	db := filepath.Join(t.TempDir(), "timeline.db")

	runs := [][]string{
		{"transfer", "--size", "6000", "--seed", "3", "--store", db, "--log-level", "error"},
		{"transfer", "--runs", "2", "--parallel", "2", "--size", "6000", "--seed", "5", "--store", db, "--log-level", "error"},
		{"transfer", "--size", "6000", "--seed", "7", "--store", db, "--log-level", "error"},
	}
	counts := make([]int64, 0, len(runs))
	for _, args := range runs {
		if out, err := execute(t, args...); err != nil {
			t.Fatalf("transfer %v returned error: %v\n%s", args, err, out)
		}
		closeStore()

		st, err := store.New(db)
		if err != nil {
			t.Fatalf("store.New: %v", err)
		}
		n, err := st.Count(context.Background())
		st.Close()
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		counts = append(counts, n)
	}
	for i := 1; i < len(counts); i++ {
		if counts[i] <= counts[i-1] {
			t.Fatalf("run %d persisted nothing: counts %v", i, counts)
		}
	}

	st, err := store.New(db)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer st.Close()
	entries, err := st.ListEntries(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if int64(len(entries)) != counts[len(counts)-1] {
		t.Fatalf("listed %d entries, stored %d", len(entries), counts[len(counts)-1])
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Sequence <= entries[i-1].Sequence {
			t.Fatalf("sequence %d follows %d at index %d", entries[i].Sequence, entries[i-1].Sequence, i)
		}
	}
}

func TestTimelineRequiresStore(t *testing.T) {
	_, err := execute(t, "timeline", "show")
	if !errors.Is(err, errNoStore) {
		t.Fatalf("expected errNoStore, got %v", err)
	}
}

func TestConnectRecoversFromFailedDials(t *testing.T) {
	out, err := execute(t, "connect", "--fail-first", "2", "--heartbeats", "3", "--log-level", "error")
	if err != nil {
		t.Fatalf("connect returned error: %v", err)
	}
	if !strings.Contains(out, "attempts=3") || !strings.Contains(out, "state=Connected") {
		t.Fatalf("unexpected connect report: %s", out)
	}
}
