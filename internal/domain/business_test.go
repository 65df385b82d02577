package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawBusiness(t *testing.T, v any) RawEvent {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return RawEvent{Value: data}
}

func TestParseBusiness(t *testing.T) {
	raw := rawBusiness(t, map[string]string{
		"business_id":   " biz-1 ",
		"name":          "פלאפל הרצל",
		"address":       " הרצל ",
		"street_number": "12",
		"city":          "תל אביב",
	})

	b, err := ParseBusiness(raw)
	require.NoError(t, err)

	want := Business{
		ID:           "biz-1",
		Name:         "פלאפל הרצל",
		Address:      "הרצל",
		StreetNumber: "12",
		City:         "תל אביב",
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Fatalf("parsed business mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBusiness_KeepsSuppliedCoordinates(t *testing.T) {
	raw := RawEvent{Value: []byte(`{"business_id":"biz-2","city":"חיפה","geo":{"latitude":32.794,"longitude":34.9896}}`)}

	b, err := ParseBusiness(raw)
	require.NoError(t, err)
	require.NotNil(t, b.Geo)
	assert.Equal(t, 32.794, b.Geo.Latitude)
}

func TestParseBusiness_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		msg   string
	}{
		{"not json", "not json", "parse business"},
		{"missing id", `{"city":"חיפה"}`, "missing business_id"},
		{"missing city", `{"business_id":"biz-3","city":"  "}`, "missing city"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBusiness(RawEvent{Value: []byte(tt.value)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSerializeBusiness(t *testing.T) {
	processed := time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC)
	b := Business{
		ID:          "biz-1",
		City:        "תל אביב",
		Geo:         &Coordinates{Latitude: 32.0853, Longitude: 34.7818},
		GeoSource:   GeoSourceAddress,
		ProcessedAt: processed,
	}

	out, err := SerializeBusiness(b)
	require.NoError(t, err)

	assert.Equal(t, []byte("biz-1"), out.Key)
	assert.Equal(t, "address", out.Headers["geo_source"])
	assert.Equal(t, "2026-03-03T09:30:00Z", out.Headers["processed_at"])
	assert.Contains(t, string(out.Value), `"latitude":32.0853`)

	var roundtrip Business
	require.NoError(t, json.Unmarshal(out.Value, &roundtrip))
	assert.Equal(t, b, roundtrip)
}

func TestStampProcessed(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	b := StampProcessed(Business{ID: "biz-1"})
	assert.Equal(t, fakeClock.Now(), b.ProcessedAt)
}
