package interpret

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func testInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	return New(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestInterpretTypeIntent(t *testing.T) {
	in := testInterpreter(t)
	q, err := in.Interpret("find pdf files about taxes")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	found := false
	for _, ft := range q.FileTypes {
		if ft == "pdf" {
			found = true
		}
	}
	if !found {
		t.Errorf("file types = %v, want pdf", q.FileTypes)
	}
	if !strings.Contains(q.Text, "taxes") {
		t.Errorf("residual terms = %q, want taxes kept", q.Text)
	}
	if strings.Contains(q.Text, "find") {
		t.Errorf("residual terms = %q, want command words stripped", q.Text)
	}
}

func TestInterpretImageAlias(t *testing.T) {
	in := testInterpreter(t)
	q, err := in.Interpret("image files from vacation")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	want := map[string]bool{"jpg": true, "png": true}
	for _, ft := range q.FileTypes {
		delete(want, ft)
	}
	if len(want) != 0 {
		t.Errorf("file types = %v, missing %v", q.FileTypes, want)
	}
}

func TestInterpretSizeIntent(t *testing.T) {
	in := testInterpreter(t)

	q, err := in.Interpret("large video files")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if q.SizeMin == nil || *q.SizeMin != largeSizeMin {
		t.Errorf("size min = %v, want %d", q.SizeMin, int64(largeSizeMin))
	}
	if strings.Contains(q.Text, "large") {
		t.Errorf("residual terms = %q, want size word stripped", q.Text)
	}

	q, err = in.Interpret("small log files")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if q.SizeMax == nil || *q.SizeMax != smallSizeMax {
		t.Errorf("size max = %v, want %d", q.SizeMax, int64(smallSizeMax))
	}
}

func TestInterpretDateIntent(t *testing.T) {
	in := testInterpreter(t)

	q, err := in.Interpret("files modified today")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if q.ModifiedAfter == nil {
		t.Fatal("no modified-after bound")
	}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !q.ModifiedAfter.Equal(midnight) {
		t.Errorf("modified after = %v, want %v", q.ModifiedAfter, midnight)
	}

	q, err = in.Interpret("notes from last week")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if q.ModifiedAfter == nil {
		t.Fatal("no modified-after bound for last week")
	}
	age := time.Since(*q.ModifiedAfter)
	if age < 6*24*time.Hour || age > 8*24*time.Hour {
		t.Errorf("last week bound %v ago", age)
	}
}

func TestInterpretRecentIntent(t *testing.T) {
	in := testInterpreter(t)
	q, err := in.Interpret("recent downloads")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if q.ModifiedAfter == nil {
		t.Fatal("no modified-after bound")
	}
	age := time.Since(*q.ModifiedAfter)
	if age < recentWindow-time.Minute || age > recentWindow+time.Minute {
		t.Errorf("recent bound %v ago, want about %v", age, recentWindow)
	}
}

func TestInterpretContentIntent(t *testing.T) {
	in := testInterpreter(t)
	q, err := in.Interpret(`files that contain "quarterly budget"`)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if !q.SearchContent {
		t.Error("content intent should enable content search")
	}
	if q.Text != "quarterly budget" {
		t.Errorf("text = %q, want the quoted phrase", q.Text)
	}
}

func TestInterpretPlainQuery(t *testing.T) {
	in := testInterpreter(t)
	q, err := in.Interpret("vacation photos 2025")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if !strings.Contains(q.Text, "vacation") {
		t.Errorf("text = %q", q.Text)
	}
	if !q.SearchContent {
		t.Error("interpreted queries default to content search")
	}
}

func TestSuggestions(t *testing.T) {
	in := testInterpreter(t)

	if got := in.Suggestions(""); got != nil {
		t.Errorf("empty partial = %v, want nil", got)
	}

	got := in.Suggestions("pdf")
	if len(got) == 0 || len(got) > maxSuggestions {
		t.Fatalf("got %d suggestions", len(got))
	}
	found := false
	for _, s := range got {
		if strings.Contains(strings.ToLower(s), "pdf") {
			found = true
		}
	}
	if !found {
		t.Errorf("suggestions = %v, want pdf completions", got)
	}

	generic := in.Suggestions("thesis")
	if len(generic) == 0 {
		t.Fatal("no generic suggestions")
	}
	if !strings.Contains(generic[0], "thesis") {
		t.Errorf("generic suggestions = %v, want partial echoed", generic)
	}

	if got := in.Suggestions("large recent pdf image code"); len(got) > maxSuggestions {
		t.Errorf("got %d suggestions, want at most %d", len(got), maxSuggestions)
	}
}
