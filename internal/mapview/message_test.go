package mapview

import (
	"testing"

	"brokenexp/internal/models"
	"github.com/matryer/is"
)

func TestEncodeWireFormat(t *testing.T) {
	is := is.New(t)

	b, err := Encode(Center{Lat: 18.0179, Lng: -76.8099, Zoom: 13})
	is.NoErr(err)
	is.Equal(string(b), `{"type":"SET_CENTER","lat":18.0179,"lng":-76.8099,"zoom":13}`)

	b, err = Encode(UserLocation{Lat: 18.5, Lng: -77.5})
	is.NoErr(err)
	is.Equal(string(b), `{"type":"SET_USER_LOCATION","lat":18.5,"lng":-77.5}`)

	b, err = Encode(Issues{})
	is.NoErr(err)
	is.Equal(string(b), `{"type":"UPDATE_ISSUES","issues":[]}`)
}

func TestNewIssuesSkipsUnlocated(t *testing.T) {
	is := is.New(t)
	msg := NewIssues([]models.Issue{
		{ID: "1", Title: "Pothole", Latitude: 18.01, Longitude: -76.8, Category: models.CategoryInfrastructure, Status: models.StatusPending, Priority: models.PriorityHigh},
		{ID: "2", Title: "Somewhere"},
	})
	is.Equal(len(msg.Issues), 1)

	b, err := Encode(msg)
	is.NoErr(err)
	is.Equal(string(b), `{"type":"UPDATE_ISSUES","issues":[{"id":"1","title":"Pothole","latitude":18.01,"longitude":-76.8,"category":"infrastructure","status":"pending","priority":"high"}]}`)
}

func TestDecode(t *testing.T) {
	is := is.New(t)

	m, err := Decode([]byte(`{"type":"SET_CENTER","lat":1.5,"lng":2.5,"zoom":9}`))
	is.NoErr(err)
	is.Equal(m, Center{Lat: 1.5, Lng: 2.5, Zoom: 9})

	m, err = Decode([]byte(`{"type":"SET_USER_LOCATION","lat":1,"lng":2}`))
	is.NoErr(err)
	is.Equal(m, UserLocation{Lat: 1, Lng: 2})

	m, err = Decode([]byte(`{"type":"UPDATE_ISSUES","issues":[{"id":"7","title":"x","latitude":1,"longitude":2,"category":"safety","status":"closed","priority":"low"}]}`))
	is.NoErr(err)
	issues := m.(Issues)
	is.Equal(issues.Issues[0].ID, "7")
	is.Equal(issues.Issues[0].Category, models.CategorySafety)
}

func TestDecodeRejects(t *testing.T) {
	is := is.New(t)
	for _, in := range []string{
		`{"type":"ZOOM_TO"}`,
		`{"lat":1}`,
		`not json`,
		`{"type":"SET_CENTER","lat":"north"}`,
	} {
		_, err := Decode([]byte(in))
		is.True(err != nil)
	}
}
