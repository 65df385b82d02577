package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"github.com/spf13/cobra"
)

type geocoderFactory func() (domain.Geocoder, error)

type rootOptions struct {
	out     io.Writer
	tty     bool
	asJSON  bool
	timeout time.Duration
	factory geocoderFactory
}

func newRootCmd(out io.Writer, tty bool, factory geocoderFactory) *cobra.Command {
	opts := &rootOptions{out: out, tty: tty, factory: factory}

	root := &cobra.Command{
		Use:           "geo",
		Short:         "Hebrew geocoding lookups for Israeli cities, streets and addresses",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON even on a terminal")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall lookup deadline")
	root.SetOut(out)

	root.AddCommand(
		newCityCmd(opts),
		newCitiesCmd(opts),
		newStreetsCmd(opts),
		newAddressCmd(opts),
		newITMCmd(opts),
		newToITMCmd(opts),
	)
	return root
}

func (o *rootOptions) printer() printer {
	return printer{out: o.out, json: o.asJSON || !o.tty}
}

// lookup builds a geocoder and runs fn under the command deadline.
func (o *rootOptions) lookup(cmd *cobra.Command, fn func(ctx context.Context, g domain.Geocoder) error) error {
	g, err := o.factory()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	return fn(ctx, g)
}

func newCityCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "city <name>",
		Short: "Print the centre coordinates of a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.lookup(cmd, func(ctx context.Context, g domain.Geocoder) error {
				coords, err := g.CityCoordinates(ctx, args[0])
				if err != nil {
					return err
				}
				return o.printer().coordinates(coords)
			})
		},
	}
}

func newCitiesCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cities <keyword>",
		Short: "Search city names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.lookup(cmd, func(ctx context.Context, g domain.Geocoder) error {
				cities, err := g.SearchCities(ctx, args[0])
				if err != nil {
					return err
				}
				return o.printer().names("city", cities)
			})
		},
	}
}

func newStreetsCmd(o *rootOptions) *cobra.Command {
	var city string
	cmd := &cobra.Command{
		Use:   "streets <keyword> --city <city>",
		Short: "Search street names within a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.lookup(cmd, func(ctx context.Context, g domain.Geocoder) error {
				streets, err := g.SearchStreets(ctx, args[0], city)
				if err != nil {
					return err
				}
				return o.printer().names("street", streets)
			})
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city to search in")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func newAddressCmd(o *rootOptions) *cobra.Command {
	var city, number string
	cmd := &cobra.Command{
		Use:   "address <street> --city <city> [--number <n>]",
		Short: "Resolve a street address to coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.lookup(cmd, func(ctx context.Context, g domain.Geocoder) error {
				coords, err := g.AddressCoordinates(ctx, args[0], city, number)
				if err != nil {
					return err
				}
				return o.printer().coordinates(coords)
			})
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city of the address")
	cmd.Flags().StringVar(&number, "number", "", "house number, may carry a letter (12א)")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func newITMCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "itm <easting> <northing>",
		Short: "Convert an ITM grid reference to WGS-84",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			e, n, err := parsePair(args, "easting", "northing")
			if err != nil {
				return err
			}
			coords := domain.FromITM(e, n)
			return o.printer().coordinates(&coords)
		},
	}
}

func newToITMCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "to-itm <latitude> <longitude>",
		Short: "Convert WGS-84 coordinates to an ITM grid reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			lat, lon, err := parsePair(args, "latitude", "longitude")
			if err != nil {
				return err
			}
			e, n := domain.ToITM(domain.Coordinates{Latitude: lat, Longitude: lon})
			return o.printer().grid(e, n)
		},
	}
}

func parsePair(args []string, first, second string) (float64, float64, error) {
	a, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid %s %q", first, args[0])
	}
	b, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid %s %q", second, args[1])
	}
	return a, b, nil
}
