// Package trace loads the external CSV-like trace format into a slice of
// requests, grounded on the C++ reference's FileProcessor.c (check_file,
// extract_file_data). Unlike the reference, a file extension other than
// .csv is accepted as long as the file is readable and non-empty (see
// DESIGN.md, Open Questions).
package trace

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dominikw1/Cache-Simulator-sub000/internal/request"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/simerr"
)

// Load reads and parses the trace file at path into a sequence of requests.
func Load(path string) ([]request.Request, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &simerr.ResourceError{Path: path, Reason: "cannot access file"}
	}
	if info.IsDir() {
		return nil, &simerr.ResourceError{Path: path, Reason: "is a directory, not a trace file"}
	}
	if !info.Mode().IsRegular() {
		return nil, &simerr.ResourceError{Path: path, Reason: "is not a regular file"}
	}
	if info.Size() == 0 {
		return nil, &simerr.ResourceError{Path: path, Reason: "contains no data"}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &simerr.ResourceError{Path: path, Reason: "cannot open file"}
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads the CSV-like grammar from r, tagging any format error with
// source for the resulting TraceFormatError.
//
// Grammar, one record per line: `<W|R|w|r>,<addr>[,<data>]`. W/w requires
// data; R/r must not carry a data field.
func Parse(r io.Reader, source string) ([]request.Request, error) {
	scanner := bufio.NewScanner(r)
	var reqs []request.Request

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		req, err := parseLine(line, lineNo, source)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, &simerr.TraceFormatError{Line: lineNo + 1, Source: source, Reason: "error reading line: " + err.Error()}
	}
	return reqs, nil
}

func parseLine(line string, lineNo int, source string) (request.Request, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if len(fields) < 2 {
		return request.Request{}, &simerr.TraceFormatError{Line: lineNo, Source: source, Reason: "expected at least <op>,<addr>"}
	}
	if fields[0] == "" {
		return request.Request{}, &simerr.TraceFormatError{Line: lineNo, Source: source, Reason: "missing operation character"}
	}

	op := fields[0][0]
	var we bool
	switch op {
	case 'R', 'r':
		we = false
	case 'W', 'w':
		we = true
	default:
		return request.Request{}, &simerr.TraceFormatError{Line: lineNo, Source: source, Reason: "unknown operation '" + string(op) + "'"}
	}

	addr, err := parseUint32(fields[1])
	if err != nil {
		return request.Request{}, &simerr.TraceFormatError{Line: lineNo, Source: source, Reason: "malformed address: " + err.Error()}
	}

	if we {
		if len(fields) < 3 || fields[2] == "" {
			return request.Request{}, &simerr.TraceFormatError{Line: lineNo, Source: source, Reason: "write requires a data field"}
		}
		data, err := parseUint32(fields[2])
		if err != nil {
			return request.Request{}, &simerr.TraceFormatError{Line: lineNo, Source: source, Reason: "malformed data: " + err.Error()}
		}
		return request.Request{Addr: addr, Data: data, We: true}, nil
	}

	if len(fields) >= 3 && fields[2] != "" {
		return request.Request{}, &simerr.TraceFormatError{Line: lineNo, Source: source, Reason: "read must not carry a data field"}
	}
	return request.Request{Addr: addr, We: false}, nil
}

// parseUint32 accepts a 0x-prefixed hex literal or a signed/unsigned decimal
// integer, reinterpreting the bit pattern as uint32 (matching fscanf's "%i"
// semantics for a signed C int passed a value later stored unsigned).
func parseUint32(s string) (uint32, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
