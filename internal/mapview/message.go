// Package mapview is the postMessage contract between a host screen and the
// embedded Leaflet page. Field names are part of the wire format.
package mapview

import (
	"encoding/json"
	"fmt"

	"brokenexp/internal/models"
)

type MessageType string

const (
	SetCenter       MessageType = "SET_CENTER"
	SetUserLocation MessageType = "SET_USER_LOCATION"
	UpdateIssues    MessageType = "UPDATE_ISSUES"
)

// Message is one envelope. Only the fields of its Type are set.
type Message interface {
	Type() MessageType
}

type Center struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Zoom int     `json:"zoom"`
}

func (Center) Type() MessageType { return SetCenter }

type UserLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (UserLocation) Type() MessageType { return SetUserLocation }

// Marker is the slice of an issue the map needs.
type Marker struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Category  models.Category `json:"category"`
	Status    models.Status   `json:"status"`
	Priority  models.Priority `json:"priority"`
}

type Issues struct {
	Issues []Marker `json:"issues"`
}

func (Issues) Type() MessageType { return UpdateIssues }

// NewIssues builds an UPDATE_ISSUES payload, skipping issues without a location.
func NewIssues(issues []models.Issue) Issues {
	out := Issues{Issues: make([]Marker, 0, len(issues))}
	for _, i := range issues {
		if i.Latitude == 0 && i.Longitude == 0 {
			continue
		}
		out.Issues = append(out.Issues, Marker{
			ID:        i.ID,
			Title:     i.Title,
			Latitude:  i.Latitude,
			Longitude: i.Longitude,
			Category:  i.Category,
			Status:    i.Status,
			Priority:  i.Priority,
		})
	}
	return out
}

// Encode renders the flat envelope: {"type": ..., <payload fields>}.
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case Center:
		return json.Marshal(struct {
			Type MessageType `json:"type"`
			Center
		}{v.Type(), v})
	case UserLocation:
		return json.Marshal(struct {
			Type MessageType `json:"type"`
			UserLocation
		}{v.Type(), v})
	case Issues:
		if v.Issues == nil {
			v.Issues = []Marker{}
		}
		return json.Marshal(struct {
			Type MessageType `json:"type"`
			Issues
		}{v.Type(), v})
	default:
		return nil, fmt.Errorf("mapview: cannot encode %T", m)
	}
}

// Decode parses an envelope. Unknown types are an error.
func Decode(data []byte) (Message, error) {
	var head struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("mapview: %w", err)
	}

	var (
		m   Message
		err error
	)
	switch head.Type {
	case SetCenter:
		var c Center
		err = json.Unmarshal(data, &c)
		m = c
	case SetUserLocation:
		var u UserLocation
		err = json.Unmarshal(data, &u)
		m = u
	case UpdateIssues:
		var i Issues
		err = json.Unmarshal(data, &i)
		m = i
	default:
		return nil, fmt.Errorf("mapview: unknown message type %q", head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("mapview: %s: %w", head.Type, err)
	}
	return m, nil
}
