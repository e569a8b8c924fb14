package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"

	"irjax/internal/cache"
	"irjax/internal/examples"
	"irjax/internal/observ"
	"irjax/internal/program"
)

func TestWriteTableAlignsColumns(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	err := writeTable(&buf, []string{"NAME", "N"}, [][]string{
		{"counter", "5"},
		{"表格", "12"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "NAME     N\ncounter  5\n表格     12\n"
	if got := buf.String(); got != want {
		t.Fatalf("table:\n%q\nwant:\n%q", got, want)
	}
}

func TestResolvePrograms(t *testing.T) {
	got, err := resolvePrograms(program.Default, []string{"Counter", "aqt_dense_module"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 2 || got[0] != examples.Counter || got[1] != examples.AqtDense {
		t.Fatalf("resolve = %v", got)
	}
	_, err = resolvePrograms(program.Default, []string{"Counter", "nope", "other"})
	if err == nil || !strings.Contains(err.Error(), "unknown program(s): nope, other") {
		t.Fatalf("error = %v", err)
	}
	all, err := resolvePrograms(program.Default, nil)
	if err != nil || len(all) < 2 {
		t.Fatalf("all = %v, %v", all, err)
	}
}

func TestDumpProgramsUsesCache(t *testing.T) {
	disk, err := cache.OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	opts := dumpOptions{jobs: 2, disk: disk}
	classes := []*program.Class{examples.Counter, examples.AqtDense}

	first, err := dumpPrograms(context.Background(), classes, opts)
	if err != nil {
		t.Fatalf("first dump: %v", err)
	}
	second, err := dumpPrograms(context.Background(), classes, opts)
	if err != nil {
		t.Fatalf("second dump: %v", err)
	}
	for i := range classes {
		if first[i].cached || !second[i].cached {
			t.Fatalf("program %d: cached = %v then %v", i, first[i].cached, second[i].cached)
		}
		if first[i].text != second[i].text {
			t.Fatalf("program %d: cached text differs", i)
		}
	}
	if !strings.HasPrefix(first[0].text, "module @counter {") {
		t.Fatalf("unexpected counter module:\n%s", first[0].text)
	}
}

func TestDumpImportOnlyPrintsSignature(t *testing.T) {
	res, err := dumpPrograms(context.Background(), []*program.Class{examples.Counter}, dumpOptions{jobs: 1, importOnly: true})
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	ci, err := program.GetClassInfo(examples.Counter)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if res[0].text != ci.Signature()+"\n" {
		t.Fatalf("text = %q", res[0].text)
	}
}

func TestPrintClassInfo(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	if err := printClassInfo(&buf, examples.Counter); err != nil {
		t.Fatalf("info: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`Counter (export name "counter")`,
		"globals:",
		"<kernel _clamp>",
		"<def get_count([])>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output missing %q:\n%s", want, out)
		}
	}
}

func TestDumpRecordsTimings(t *testing.T) {
	timer := observ.NewTimer()
	opts := dumpOptions{jobs: 2, timer: timer}
	if _, err := dumpPrograms(context.Background(), []*program.Class{examples.Counter, examples.AqtDense}, opts); err != nil {
		t.Fatalf("dump: %v", err)
	}
	phases := timer.Report().Phases
	if len(phases) != 2 {
		t.Fatalf("expected 2 phases, got %+v", phases)
	}
	for _, p := range phases {
		if !strings.HasPrefix(p.Name, "trace ") || !strings.HasSuffix(p.Note, " funcs") {
			t.Fatalf("unexpected phase %+v", p)
		}
	}
}

func TestBuildReportListsPrograms(t *testing.T) {
	color.NoColor = true
	report, err := collectBuildReport(program.Default)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var buf bytes.Buffer
	if err := writeBuildReport(&buf, report); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"irjax " + report.Version, "counter", "aqt_dense_module"} {
		if !strings.Contains(out, want) {
			t.Fatalf("version output missing %q:\n%s", want, out)
		}
	}
}
