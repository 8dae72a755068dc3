package bot

import (
	"testing"

	"github.com/dobroplatform/dobro-max-bot/internal/db"
)

func TestStepRoundTrip(t *testing.T) {
	steps := []Step{StepTitle, StepCategory, StepType, StepRegion, StepDescription, StepDate, StepConfirm}
	for _, step := range steps {
		parsed, err := ParseStep(step.String())
		if err != nil {
			t.Fatalf("ParseStep(%q): %v", step.String(), err)
		}
		if parsed != step {
			t.Fatalf("ParseStep(%q) = %v, want %v", step.String(), parsed, step)
		}
	}
}

func TestParseStepRejectsUnknown(t *testing.T) {
	if _, err := ParseStep("launch"); err == nil {
		t.Fatal("expected error for unknown step name")
	}
	if _, err := ParseStep(""); err == nil {
		t.Fatal("expected error for empty step name")
	}
}

func TestSessionEncodeDecode(t *testing.T) {
	orig := &session{
		userID: "42",
		action: ActionCreatingRequest,
		step:   StepRegion,
		draft: Draft{
			Title:    "Помощь приюту",
			Category: "Животные",
			Type:     "разовая",
		},
	}

	row, err := orig.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if row.Action != ActionCreatingRequest || row.Step != "region" {
		t.Fatalf("row = %+v", row)
	}

	decoded, err := decodeSession(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.step != orig.step || decoded.draft != orig.draft {
		t.Fatalf("round trip lost data: %+v", decoded)
	}
}

func TestDecodeSessionRejectsCorruptData(t *testing.T) {
	row := &db.Session{
		UserID: "42",
		Action: ActionCreatingRequest,
		Step:   "title",
		Data:   []byte("{not json"),
	}
	if _, err := decodeSession(row); err == nil {
		t.Fatal("expected error for corrupt data")
	}

	row = &db.Session{UserID: "42", Action: ActionCreatingRequest, Step: "warp"}
	if _, err := decodeSession(row); err == nil {
		t.Fatal("expected error for unknown step")
	}
}

func TestDraftComplete(t *testing.T) {
	full := Draft{
		Title: "t", Category: "c", Type: "y",
		Region: "r", Description: "d", Date: "2024-12-15",
	}
	if !full.Complete() {
		t.Fatal("full draft must be complete")
	}

	partial := full
	partial.Date = ""
	if partial.Complete() {
		t.Fatal("draft without a date must be incomplete")
	}
	if (Draft{}).Complete() {
		t.Fatal("empty draft must be incomplete")
	}
}
