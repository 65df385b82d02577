package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
)

// printer writes results as an aligned table for people or JSON for pipes.
type printer struct {
	out  io.Writer
	json bool
}

func (p printer) coordinates(c *domain.Coordinates) error {
	if p.json {
		return p.encode(map[string]*domain.Coordinates{"coordinates": c})
	}
	if c == nil {
		_, err := fmt.Fprintln(p.out, "no match")
		return err
	}
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "latitude\t%.6f\n", c.Latitude)
	fmt.Fprintf(tw, "longitude\t%.6f\n", c.Longitude)
	return tw.Flush()
}

func (p printer) names(kind string, names []string) error {
	if names == nil {
		names = []string{}
	}
	if p.json {
		return p.encode(names)
	}
	if len(names) == 0 {
		_, err := fmt.Fprintf(p.out, "no %s matched\n", kind)
		return err
	}
	for _, n := range names {
		if _, err := fmt.Fprintln(p.out, n); err != nil {
			return err
		}
	}
	return nil
}

func (p printer) grid(easting, northing float64) error {
	if p.json {
		return p.encode(map[string]float64{"easting": easting, "northing": northing})
	}
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "easting\t%.1f\n", easting)
	fmt.Fprintf(tw, "northing\t%.1f\n", northing)
	return tw.Flush()
}

func (p printer) encode(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
