package calendar

import (
	"strings"
	"testing"
	"time"

	"translation_marketplace/internal/domain/request"

	"github.com/google/uuid"
)

func TestBuildMeetingInvite(t *testing.T) {
	start := time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)
	req := &request.Request{
		ID:              uuid.New(),
		Title:           "Deposition",
		SourceLanguage:  "en",
		TargetLanguage:  "es",
		Type:            request.TypeLiveOnSite,
		StartDate:       &start,
		DurationMinutes: 90,
		Address:         "221B Baker Street",
	}

	data, err := BuildMeetingInvite(req, time.Now())
	if err != nil {
		t.Fatalf("BuildMeetingInvite: %v", err)
	}
	text := string(data)
	for _, want := range []string{"BEGIN:VCALENDAR", "METHOD:REQUEST", "BEGIN:VEVENT", "221B Baker Street", "Interpretation: Deposition"} {
		if !strings.Contains(text, want) {
			t.Errorf("invite missing %q", want)
		}
	}
}

func TestBuildMeetingInvite_Preconditions(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)

	doc := &request.Request{ID: uuid.New(), Type: request.TypeDocument, StartDate: &start}
	if _, err := BuildMeetingInvite(doc, time.Now()); err == nil {
		t.Error("expected error for a document request")
	}

	unscheduled := &request.Request{ID: uuid.New(), Type: request.TypeRemoteMeeting}
	if _, err := BuildMeetingInvite(unscheduled, time.Now()); err == nil {
		t.Error("expected error without a start date")
	}
}
