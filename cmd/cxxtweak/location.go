package main

import (
	"fmt"
	"strconv"
	"strings"

	"cxxtweak/internal/driver"
)

// location is a FILE:LINE:COL argument; Line and Col are 1-based and Col
// counts bytes.
type location struct {
	Path      string
	Line, Col uint32
}

func parseLocation(arg string) (location, error) {
	rest, colStr, ok := cutLast(arg)
	if !ok {
		return location{}, fmt.Errorf("expected FILE:LINE:COL, got %q", arg)
	}
	path, lineStr, ok := cutLast(rest)
	if !ok || path == "" {
		return location{}, fmt.Errorf("expected FILE:LINE:COL, got %q", arg)
	}
	line, err := parsePositive(lineStr)
	if err != nil {
		return location{}, fmt.Errorf("%q: bad line: %w", arg, err)
	}
	col, err := parsePositive(colStr)
	if err != nil {
		return location{}, fmt.Errorf("%q: bad column: %w", arg, err)
	}
	return location{Path: path, Line: line, Col: col}, nil
}

// parseLineCol parses LINE:COL.
func parseLineCol(s string) (line, col uint32, err error) {
	lineStr, colStr, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected LINE:COL, got %q", s)
	}
	if line, err = parsePositive(lineStr); err != nil {
		return 0, 0, err
	}
	if col, err = parsePositive(colStr); err != nil {
		return 0, 0, err
	}
	return line, col, nil
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func parsePositive(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("must be >= 1")
	}
	return uint32(n), nil
}

// selection converts the location and an optional LINE:COL end into a
// request on snap.
func selection(snap *driver.Snapshot, loc location, end string) (start, stop uint32, err error) {
	start, err = snap.Offset(loc.Line, loc.Col)
	if err != nil {
		return 0, 0, fmt.Errorf("%s:%d:%d: %w", loc.Path, loc.Line, loc.Col, err)
	}
	stop = start
	if end != "" {
		line, col, err := parseLineCol(end)
		if err != nil {
			return 0, 0, fmt.Errorf("--end: %w", err)
		}
		if stop, err = snap.Offset(line, col); err != nil {
			return 0, 0, fmt.Errorf("--end: %w", err)
		}
	}
	return start, stop, nil
}
