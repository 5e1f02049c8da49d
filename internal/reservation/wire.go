package reservation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// flexString decodes JSON strings and numbers alike. The reservation system
// is not consistent about the type of identifiers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// wireEvent carries the per-event fields. It is embedded in wirePayload for
// the single-event shape and used as array element for the batch shape.
type wireEvent struct {
	EventID          flexString `json:"eventId"`
	EventTitle       string     `json:"eventTitle"`
	EventDescription string     `json:"eventDescription"`
	EventStart       *time.Time `json:"eventStart"`
	EventEnd         *time.Time `json:"eventEnd"`
	ResourceID       flexString `json:"resourceId"`
	ResourceName     string     `json:"resourceName"`
	ResourceType     string     `json:"resourceType"`
	ResourceSpecs    string     `json:"resourceSpecs"`
	ResourceLocation string     `json:"resourceLocation"`
	SiteID           flexString `json:"siteId"`
	SiteName         string     `json:"siteName"`
}

type wireDeletedResource struct {
	ID       flexString `json:"id"`
	Name     string     `json:"name"`
	Specs    string     `json:"specs"`
	Location string     `json:"location"`
}

type wireDeleted struct {
	ID          flexString           `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Start       *time.Time           `json:"start"`
	End         *time.Time           `json:"end"`
	KeycloakID  string               `json:"keycloakId"`
	Resource    *wireDeletedResource `json:"resource"`
}

type wirePayload struct {
	wireEvent

	EventType       string       `json:"eventType"`
	Timestamp       *time.Time   `json:"timestamp"`
	WebhookID       flexString   `json:"webhookId"`
	UserID          flexString   `json:"userId"`
	Username        string       `json:"username"`
	Email           string       `json:"email"`
	SSHPublicKey    string       `json:"sshPublicKey"`
	EventCount      *int         `json:"eventCount"`
	Events          *[]wireEvent `json:"events"`
	ActiveResources []wireEvent  `json:"activeResources"`
	Data            *wireDeleted `json:"data"`
}

func (w wireEvent) record() EventRecord {
	rec := EventRecord{
		EventID:          string(w.EventID),
		ResourceID:       string(w.ResourceID),
		ResourceName:     w.ResourceName,
		ResourceType:     w.ResourceType,
		Title:            w.EventTitle,
		Description:      w.EventDescription,
		ResourceSpecs:    w.ResourceSpecs,
		ResourceLocation: w.ResourceLocation,
		SiteID:           string(w.SiteID),
		SiteName:         w.SiteName,
	}
	if w.EventStart != nil {
		rec.EventStart = w.EventStart.UTC()
	}
	if w.EventEnd != nil {
		rec.EventEnd = w.EventEnd.UTC()
	}
	return rec
}

func (d wireDeleted) record() EventRecord {
	rec := EventRecord{
		EventID:     string(d.ID),
		Title:       d.Title,
		Description: d.Description,
	}
	if d.Resource != nil {
		rec.ResourceID = string(d.Resource.ID)
		rec.ResourceName = d.Resource.Name
		rec.ResourceSpecs = d.Resource.Specs
		rec.ResourceLocation = d.Resource.Location
	}
	if d.Start != nil {
		rec.EventStart = d.Start.UTC()
	}
	if d.End != nil {
		rec.EventEnd = d.End.UTC()
	}
	return rec
}
