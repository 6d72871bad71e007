package audit

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/manmitra-core/server/internal/agent/model"
	"github.com/manmitra-core/server/internal/core"
	logx "github.com/manmitra-core/server/pkg/logger"
)

func tempCfg(t *testing.T) model.AuditConfig {
	t.Helper()
	return model.AuditConfig{
		DBPath:        filepath.Join(t.TempDir(), "audit_test.db"),
		RetentionDays: 90,
	}
}

func mustNew(t *testing.T, cfg model.AuditConfig) *Logger {
	t.Helper()
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLogAndRecent(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	entries := []Entry{
		{RequestID: "r1", Kind: KindCrisis, UserID: "u1", Outcome: "high", TextHash: HashText("a"), Patterns: []string{"kill myself"}, CreatedAt: base},
		{RequestID: "r2", Kind: KindModeration, Outcome: "block", Method: "rule_based", TextHash: HashText("b"), Patterns: []string{"bomb"}, CreatedAt: base.Add(time.Second)},
		{RequestID: "r3", Kind: KindCrisis, Outcome: "medium", TextHash: HashText("c"), CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := l.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	crises, err := l.Recent(ctx, KindCrisis, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(crises) != 2 {
		t.Fatalf("expected 2 crisis entries, got %d", len(crises))
	}
	if crises[0].RequestID != "r3" {
		t.Errorf("expected newest first, got %s", crises[0].RequestID)
	}
	if crises[1].UserID != "u1" || len(crises[1].Patterns) != 1 || crises[1].Patterns[0] != "kill myself" {
		t.Errorf("unexpected entry: %+v", crises[1])
	}

	all, err := l.Recent(ctx, "", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected limit 2, got %d", len(all))
	}
}

func TestStats(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Log(ctx, Entry{RequestID: "r", Kind: KindCrisis, Outcome: "high", TextHash: HashText("x")}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	stats, err := l.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 1 || stats[0].Count != 3 || stats[0].Outcome != "high" {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCleanup(t *testing.T) {
	cfg := tempCfg(t)
	cfg.RetentionDays = 30
	l := mustNew(t, cfg)
	ctx := context.Background()

	old := Entry{RequestID: "old", Kind: KindCrisis, Outcome: "low", TextHash: HashText("o"), CreatedAt: time.Now().UTC().AddDate(0, 0, -60)}
	fresh := Entry{RequestID: "new", Kind: KindCrisis, Outcome: "low", TextHash: HashText("n")}
	for _, e := range []Entry{old, fresh} {
		if err := l.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	n, err := l.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	rest, _ := l.Recent(ctx, "", 10)
	if len(rest) != 1 || rest[0].RequestID != "new" {
		t.Errorf("unexpected remaining entries: %+v", rest)
	}
}

func TestHashText(t *testing.T) {
	h := HashText("hello")
	if h != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Errorf("unexpected hash %s", h)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(model.AuditConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSweepLogsCleanupFailure(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	if _, err := l.db.Exec(`DROP TABLE safety_audit`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Development, Output: &buf})
	defer logx.Init()

	l.sweep(context.Background())
	if !strings.Contains(buf.String(), "Audit retention sweep failed") {
		t.Errorf("expected sweep failure to be logged, got %q", buf.String())
	}
}
