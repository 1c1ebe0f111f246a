package core

// parser.go reads the vehicle CSV format.
//
// The format is line oriented: one vehicle per line, fields separated by ';'.
// Every line is a data row, including the first. There is no quoting, so a
// ';' inside a value always splits it. Reading is single pass and the
// reader is consumed.

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

const (
	// FieldDelimiter separates columns within a line.
	FieldDelimiter = ";"

	vehicleFields = 3

	// maxLineSize bounds a single line. Longer lines surface as CSVReadError.
	maxLineSize = 1 << 20
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseVehicles reads r line by line and returns one Vehicle per line in
// input order. Returned vehicles have no ID.
//
// A read failure returns *CSVReadError. A line with fewer than three fields
// returns *MalformedRowError with its 1-based line number. No partial result
// is returned on error.
func ParseVehicles(r io.Reader) ([]Vehicle, error) {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, &CSVReadError{Line: 1, Err: err}
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLines)

	var vehicles []Vehicle
	line := 0
	for scanner.Scan() {
		line++
		v, err := parseLine(scanner.Text(), line)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, &CSVReadError{Line: line + 1, Err: err}
	}

	return vehicles, nil
}

func parseLine(text string, line int) (Vehicle, error) {
	fields := strings.Split(text, FieldDelimiter)
	if len(fields) < vehicleFields {
		return Vehicle{}, &MalformedRowError{Line: line, Fields: len(fields)}
	}

	return Vehicle{
		Manufacturer: fields[0],
		Model:        fields[1],
		Type:         fields[2],
	}, nil
}

// skipBOM drops a UTF-8 byte order mark at the start of the stream.
// A short stream is not an error; any other read failure is returned.
func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, bufio.ErrBufferFull) {
			return nil
		}
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return nil
}

// scanLines is bufio.ScanLines that also ends a line at a bare '\r'.
// "\r\n" counts as a single terminator.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// '\r' at the end of the buffer may be the first half of "\r\n".
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
