package core

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVehicles(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Vehicle
	}{
		{
			name:  "two rows",
			input: "Toyota;Corolla;Sedan\nHonda;Civic;Hatchback\n",
			want: []Vehicle{
				{Manufacturer: "Toyota", Model: "Corolla", Type: "Sedan"},
				{Manufacturer: "Honda", Model: "Civic", Type: "Hatchback"},
			},
		},
		{
			name:  "no trailing newline",
			input: "Toyota;Corolla;Sedan",
			want:  []Vehicle{{Manufacturer: "Toyota", Model: "Corolla", Type: "Sedan"}},
		},
		{
			name:  "first line is data not header",
			input: "manufacturer;model;type\nFord;Focus;Hatchback\n",
			want: []Vehicle{
				{Manufacturer: "manufacturer", Model: "model", Type: "type"},
				{Manufacturer: "Ford", Model: "Focus", Type: "Hatchback"},
			},
		},
		{
			name:  "extra fields ignored",
			input: "Volvo;XC90;SUV;2021;blue\n",
			want:  []Vehicle{{Manufacturer: "Volvo", Model: "XC90", Type: "SUV"}},
		},
		{
			name:  "crlf line endings",
			input: "Kia;Rio;Sedan\r\nMazda;CX-5;SUV\r\n",
			want: []Vehicle{
				{Manufacturer: "Kia", Model: "Rio", Type: "Sedan"},
				{Manufacturer: "Mazda", Model: "CX-5", Type: "SUV"},
			},
		},
		{
			name:  "bare cr line endings",
			input: "Kia;Rio;Sedan\rMazda;CX-5;SUV\r",
			want: []Vehicle{
				{Manufacturer: "Kia", Model: "Rio", Type: "Sedan"},
				{Manufacturer: "Mazda", Model: "CX-5", Type: "SUV"},
			},
		},
		{
			name:  "mixed line endings",
			input: "A;B;C\r\nD;E;F\rG;H;I\n",
			want: []Vehicle{
				{Manufacturer: "A", Model: "B", Type: "C"},
				{Manufacturer: "D", Model: "E", Type: "F"},
				{Manufacturer: "G", Model: "H", Type: "I"},
			},
		},
		{
			name:  "utf8 bom stripped",
			input: "\xEF\xBB\xBFŠkoda;Octavia;Wagon\n",
			want:  []Vehicle{{Manufacturer: "Škoda", Model: "Octavia", Type: "Wagon"}},
		},
		{
			name:  "quotes are not interpreted",
			input: "\"BMW\";\"3 Series\";\"Sedan\"\n",
			want:  []Vehicle{{Manufacturer: "\"BMW\"", Model: "\"3 Series\"", Type: "\"Sedan\""}},
		},
		{
			name:  "empty fields allowed",
			input: ";;\n",
			want:  []Vehicle{{}},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVehicles(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVehicles_PreservesOrderAndCount(t *testing.T) {
	const n = 500
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Make%d;Model%d;Type%d\n", i, i, i)
	}

	got, err := ParseVehicles(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, got, n)

	for i, v := range got {
		assert.Equal(t, fmt.Sprintf("Make%d", i), v.Manufacturer)
		assert.Equal(t, fmt.Sprintf("Model%d", i), v.Model)
		assert.Equal(t, fmt.Sprintf("Type%d", i), v.Type)
		assert.False(t, v.Persisted(), "parsed vehicle must not have an ID")
	}
}

func TestParseVehicles_MalformedRow(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantLine   int
		wantFields int
	}{
		{"two fields on line 2", "Toyota;Corolla;Sedan\nHonda;Civic\n", 2, 2},
		{"single field on line 1", "Toyota\n", 1, 1},
		{"empty line in the middle", "Toyota;Corolla;Sedan\n\nHonda;Civic;Hatchback\n", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVehicles(strings.NewReader(tt.input))
			assert.Nil(t, got)

			var rowErr *MalformedRowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, tt.wantLine, rowErr.Line)
			assert.Equal(t, tt.wantFields, rowErr.Fields)
		})
	}
}

func TestParseVehicles_ReadError(t *testing.T) {
	ioErr := errors.New("disk on fire")
	r := io.MultiReader(strings.NewReader("Toyota;Corolla;Sedan\n"), iotest.ErrReader(ioErr))

	got, err := ParseVehicles(r)
	assert.Nil(t, got)

	var readErr *CSVReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, ioErr)
	assert.Equal(t, 2, readErr.Line)
}

// flakyReader fails its first Read, then reports EOF.
type flakyReader struct {
	err   error
	calls int
}

func (r *flakyReader) Read(p []byte) (int, error) {
	r.calls++
	if r.calls == 1 {
		return 0, r.err
	}
	return 0, io.EOF
}

func TestParseVehicles_ReadErrorOnFirstRead(t *testing.T) {
	ioErr := errors.New("connection reset by peer")

	got, err := ParseVehicles(&flakyReader{err: ioErr})
	assert.Nil(t, got)

	var readErr *CSVReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, ioErr)
	assert.Equal(t, 1, readErr.Line)
}

func TestScanLines_CRAtBufferBoundary(t *testing.T) {
	advance, token, err := scanLines([]byte("A;B;C\r"), false)
	require.NoError(t, err)
	assert.Zero(t, advance, "should wait for more data after a trailing cr")
	assert.Nil(t, token)

	advance, token, err = scanLines([]byte("A;B;C\r"), true)
	require.NoError(t, err)
	assert.Equal(t, 6, advance)
	assert.Equal(t, "A;B;C", string(token))
}

func TestParseVehicles_LineTooLong(t *testing.T) {
	long := strings.Repeat("x", maxLineSize+1) + ";a;b\n"

	_, err := ParseVehicles(strings.NewReader(long))

	var readErr *CSVReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, 1, readErr.Line)
}
