package models

import (
	"testing"
)

func TestUploadTransitions(t *testing.T) {
	cases := []struct {
		from UploadStatus
		to   UploadStatus
		ok   bool
	}{
		{UploadStatusPending, UploadStatusProcessing, true},
		{UploadStatusProcessing, UploadStatusCompleted, true},
		{UploadStatusProcessing, UploadStatusFailed, true},
		{UploadStatusPending, UploadStatusCompleted, false},
		{UploadStatusPending, UploadStatusFailed, false},
		{UploadStatusCompleted, UploadStatusProcessing, false},
		{UploadStatusCompleted, UploadStatusFailed, false},
		{UploadStatusFailed, UploadStatusProcessing, false},
		{UploadStatusProcessing, UploadStatusPending, false},
	}
	for _, c := range cases {
		u := DataUpload{Status: c.from}
		if got := u.canTransition(c.to); got != c.ok {
			t.Errorf("canTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestAppendStageLog(t *testing.T) {
	u := DataUpload{}
	u.AppendStageLog("extract", "3 sheets", 120, 2)
	u.AppendStageLog("transform", "typed rows", 118, 4)

	if len(u.ProcessingLog) != 2 {
		t.Fatalf("log entries = %d, want 2", len(u.ProcessingLog))
	}
	if u.ProcessingLog[0].Stage != "extract" || u.ProcessingLog[0].ErrorCount != 2 {
		t.Errorf("first entry = %+v", u.ProcessingLog[0])
	}
	if u.ProcessingLog[1].RowCount != 118 {
		t.Errorf("second entry = %+v", u.ProcessingLog[1])
	}
	if u.ProcessingLog[0].LoggedAt.IsZero() {
		t.Error("LoggedAt not stamped")
	}
}
