package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Business is a kosher business location record as published by the
// directory backend when a business is created or its address is edited.
type Business struct {
	ID           string       `json:"business_id"`
	Name         string       `json:"name,omitempty"`
	Address      string       `json:"address"`
	StreetNumber string       `json:"street_number,omitempty"`
	City         string       `json:"city"`
	Geo          *Coordinates `json:"geo,omitempty"`
	GeoSource    string       `json:"geo_source,omitempty"` // see GeoSource* constants

	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseBusiness decodes a raw message into a Business. Records without a
// business ID or city cannot be geocoded and are rejected.
func ParseBusiness(raw RawEvent) (Business, error) {
	var b Business
	if err := json.Unmarshal(raw.Value, &b); err != nil {
		return Business{}, fmt.Errorf("parse business: %w", err)
	}

	b.ID = strings.TrimSpace(b.ID)
	b.Address = strings.TrimSpace(b.Address)
	b.StreetNumber = strings.TrimSpace(b.StreetNumber)
	b.City = strings.TrimSpace(b.City)

	if b.ID == "" {
		return Business{}, errors.New("parse business: missing business_id")
	}
	if b.City == "" {
		return Business{}, fmt.Errorf("parse business %s: missing city", b.ID)
	}
	return b, nil
}

// SerializeBusiness marshals a geocoded business for the sink topic, keyed
// by business ID.
func SerializeBusiness(b Business) (OutputEvent, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize business %s: %w", b.ID, err)
	}
	return OutputEvent{
		Key:   []byte(b.ID),
		Value: data,
		Headers: map[string]string{
			"geo_source":   b.GeoSource,
			"processed_at": b.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

// StampProcessed sets ProcessedAt from the package clock.
func StampProcessed(b Business) Business {
	b.ProcessedAt = clock.Now().UTC()
	return b
}
