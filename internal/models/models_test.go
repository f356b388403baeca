package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStageIsValid(t *testing.T) {
	valid := []Stage{StageApplied, StageReplied, StageInterview, StageHired, StageNotHired}
	for _, stage := range valid {
		if !stage.IsValid() {
			t.Errorf("Stage(%q).IsValid() = false, want true", stage)
		}
	}

	for _, stage := range []Stage{"", "fired", "HIRED", "pending"} {
		if stage.IsValid() {
			t.Errorf("Stage(%q).IsValid() = true, want false", stage)
		}
	}
}

func TestStageIsTerminal(t *testing.T) {
	for _, stage := range []Stage{StageHired, StageNotHired} {
		if !stage.IsTerminal() {
			t.Errorf("Stage(%q).IsTerminal() = false, want true", stage)
		}
	}
	for _, stage := range []Stage{StageApplied, StageReplied, StageInterview} {
		if stage.IsTerminal() {
			t.Errorf("Stage(%q).IsTerminal() = true, want false", stage)
		}
	}
}

func TestStageNotificationType(t *testing.T) {
	testCases := []struct {
		stage Stage
		want  string
	}{
		{StageReplied, NotificationJobReplied},
		{StageInterview, NotificationJobInterview},
		{StageHired, NotificationJobHired},
		{StageNotHired, NotificationJobNotHired},
	}

	for _, tc := range testCases {
		if got := tc.stage.NotificationType(); got != tc.want {
			t.Errorf("Stage(%q).NotificationType() = %q, want %q", tc.stage, got, tc.want)
		}
	}
}

func TestMarkHiredRequestValidate(t *testing.T) {
	valid := func() MarkHiredRequest {
		return MarkHiredRequest{
			JobExternalID: "ext-1",
			BidderID:      uuid.New(),
			DeveloperID:   uuid.New(),
			HiredAt:       time.Now(),
			BudgetType:    "fixed",
			BudgetAmount:  100,
			ClientName:    "Acme",
			ProfileName:   "main",
		}
	}

	if err := func() error { r := valid(); return r.Validate() }(); err != nil {
		t.Fatalf("Validate() on complete request = %v, want nil", err)
	}

	testCases := []struct {
		name   string
		mutate func(*MarkHiredRequest)
	}{
		{"missing external id", func(r *MarkHiredRequest) { r.JobExternalID = "" }},
		{"missing bidder", func(r *MarkHiredRequest) { r.BidderID = uuid.Nil }},
		{"missing developer", func(r *MarkHiredRequest) { r.DeveloperID = uuid.Nil }},
		{"zero hired_at", func(r *MarkHiredRequest) { r.HiredAt = time.Time{} }},
		{"missing budget type", func(r *MarkHiredRequest) { r.BudgetType = "" }},
		{"zero budget amount", func(r *MarkHiredRequest) { r.BudgetAmount = 0 }},
		{"negative budget amount", func(r *MarkHiredRequest) { r.BudgetAmount = -5 }},
		{"missing client name", func(r *MarkHiredRequest) { r.ClientName = "" }},
		{"missing profile name", func(r *MarkHiredRequest) { r.ProfileName = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)
			if err := req.Validate(); err != ErrMissingFields {
				t.Errorf("Validate() = %v, want %v", err, ErrMissingFields)
			}
		})
	}
}

func TestIgnoreJobRequestValidate(t *testing.T) {
	reason := "Budget too low"
	custom := "Client history looks bad"
	empty := ""

	testCases := []struct {
		name    string
		req     IgnoreJobRequest
		wantErr error
	}{
		{"reason code only", IgnoreJobRequest{Reason: &reason}, nil},
		{"custom reason only", IgnoreJobRequest{CustomReason: &custom}, nil},
		{"both reasons", IgnoreJobRequest{Reason: &reason, CustomReason: &custom}, nil},
		{"no reason", IgnoreJobRequest{}, ErrMissingReason},
		{"empty strings", IgnoreJobRequest{Reason: &empty, CustomReason: &empty}, ErrMissingReason},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.req.Validate(); err != tc.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNotificationEventPayload(t *testing.T) {
	actionURL := "/jobs/123"
	n := &Notification{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Type:      NotificationJobHired,
		Title:     "Job hired",
		Message:   "Your bid was hired",
		Priority:  PriorityHigh,
		Icon:      "trophy",
		ActionURL: &actionURL,
		Metadata:  Metadata{"job_external_id": "ext-1"},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	payload := n.EventPayload()
	if payload["type"] != NotificationJobHired {
		t.Errorf("payload type = %v, want %q", payload["type"], NotificationJobHired)
	}
	if payload["createdAt"] != "2024-05-01T12:00:00Z" {
		t.Errorf("payload createdAt = %v, want RFC3339 UTC", payload["createdAt"])
	}
	if payload["actionUrl"] != actionURL {
		t.Errorf("payload actionUrl = %v, want %q", payload["actionUrl"], actionURL)
	}

	meta, ok := payload["metadata"].(map[string]any)
	if !ok || meta["job_external_id"] != "ext-1" {
		t.Errorf("payload metadata = %v, want job_external_id set", payload["metadata"])
	}

	// Optional fields are omitted, not emitted as nulls.
	bare := &Notification{Type: NotificationGeneral}
	barePayload := bare.EventPayload()
	if _, exists := barePayload["actionUrl"]; exists {
		t.Error("payload includes actionUrl for notification without one")
	}
	if _, exists := barePayload["metadata"]; exists {
		t.Error("payload includes metadata for notification without any")
	}
}

func TestMetadataScanValue(t *testing.T) {
	m := Metadata{"stage": "interview", "count": float64(2)}

	value, err := m.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned Metadata
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if scanned["stage"] != "interview" {
		t.Errorf("scanned stage = %v, want %q", scanned["stage"], "interview")
	}

	var fromNil Metadata
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if fromNil != nil {
		t.Errorf("Scan(nil) = %v, want nil", fromNil)
	}

	var none Metadata
	if v, err := none.Value(); err != nil || v != nil {
		t.Errorf("Value() on nil = (%v, %v), want (nil, nil)", v, err)
	}
}
