package calendar

import (
	"fmt"
	"time"

	"translation_marketplace/internal/domain/request"

	ics "github.com/arran4/golang-ical"
)

// BuildMeetingInvite renders an ICS calendar invite for a live
// interpretation session. Returns an error if the request carries no
// start date.
func BuildMeetingInvite(req *request.Request, now time.Time) ([]byte, error) {
	if !req.Type.IsLive() {
		return nil, fmt.Errorf("request %s is not a live interpretation", req.ID)
	}
	if req.StartDate == nil {
		return nil, fmt.Errorf("request %s has no start date", req.ID)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)

	event := cal.AddEvent("interpretation-" + req.ID.String())
	event.SetCreatedTime(now)
	event.SetDtStampTime(now)
	event.SetStartAt(*req.StartDate)
	duration := time.Duration(req.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = time.Hour
	}
	event.SetEndAt(req.StartDate.Add(duration))
	event.SetSummary(fmt.Sprintf("Interpretation: %s (%s → %s)", req.Title, req.SourceLanguage, req.TargetLanguage))
	event.SetDescription(req.Description)

	switch req.Type {
	case request.TypeLiveOnSite:
		event.SetLocation(req.Address)
	case request.TypeRemoteMeeting:
		if req.MeetingLink != "" {
			event.SetLocation(req.MeetingLink)
		}
	case request.TypeRemotePhone:
		if req.PhoneNumber != "" {
			event.SetLocation("Phone: " + req.PhoneNumber)
		}
	}

	return []byte(cal.Serialize()), nil
}
