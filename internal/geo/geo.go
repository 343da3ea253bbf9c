// Package geo resolves a click's country of origin.
//
// Resolution is an ordered chain of sources: a MaxMind database lookup
// on the client IP, a timezone-to-country table driven by a client
// hint, then the statically configured default. Each source failure
// means "try the next one"; the chain as a whole is best-effort and
// must never block the navigation race beyond its timeout.
package geo

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// ErrNoResult means a source could not determine a country.
var ErrNoResult = errors.New("no geo result")

// Hints carries the request attributes a source may use.
type Hints struct {
	IP       string
	Timezone string // IANA name, client-supplied
}

// Source resolves a country code from request hints.
type Source interface {
	Country(ctx context.Context, hints Hints) (string, error)
}

// MaxMindSource looks up the client IP in a local MaxMind database.
type MaxMindSource struct {
	db *maxminddb.Reader
}

// OpenMaxMind opens a .mmdb file. An empty path returns a nil-safe
// source that always reports no result.
func OpenMaxMind(path string) (*MaxMindSource, error) {
	if path == "" {
		return &MaxMindSource{}, nil
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	return &MaxMindSource{db: db}, nil
}

// Close releases the database handle.
func (s *MaxMindSource) Close() {
	if s != nil && s.db != nil {
		s.db.Close()
	}
}

// Country resolves the ISO country code for the hinted IP.
func (s *MaxMindSource) Country(ctx context.Context, hints Hints) (string, error) {
	if s == nil || s.db == nil || hints.IP == "" {
		return "", ErrNoResult
	}
	ip := net.ParseIP(hints.IP)
	if ip == nil {
		return "", ErrNoResult
	}

	var record struct {
		Country struct {
			ISOCode string `maxminddb:"iso_code"`
		} `maxminddb:"country"`
	}
	if err := s.db.Lookup(ip, &record); err != nil {
		return "", err
	}
	if record.Country.ISOCode == "" {
		return "", ErrNoResult
	}
	return record.Country.ISOCode, nil
}

// TimezoneSource maps a client-supplied IANA timezone to a country.
type TimezoneSource struct{}

// Country resolves via the timezone table.
func (TimezoneSource) Country(ctx context.Context, hints Hints) (string, error) {
	if hints.Timezone == "" {
		return "", ErrNoResult
	}
	if cc, ok := timezoneCountries[hints.Timezone]; ok {
		return cc, nil
	}
	return "", ErrNoResult
}

// StaticSource always returns a configured default.
type StaticSource struct {
	Default string
}

// Country returns the configured default country.
func (s StaticSource) Country(ctx context.Context, hints Hints) (string, error) {
	if s.Default == "" {
		return "", ErrNoResult
	}
	return strings.ToUpper(s.Default), nil
}

// Chain tries each source in order with a shared deadline.
type Chain struct {
	sources []Source
	timeout time.Duration
}

// NewChain builds a resolution chain. A zero timeout disables the
// deadline.
func NewChain(timeout time.Duration, sources ...Source) *Chain {
	return &Chain{sources: sources, timeout: timeout}
}

// Country resolves the first country any source reports, uppercased.
// Returns empty string when every source fails; the caller treats that
// as "no geography known", never as an error.
func (c *Chain) Country(ctx context.Context, hints Hints) string {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	for _, source := range c.sources {
		if ctx.Err() != nil {
			return ""
		}
		cc, err := source.Country(ctx, hints)
		if err != nil || cc == "" {
			continue
		}
		return strings.ToUpper(cc)
	}
	return ""
}
