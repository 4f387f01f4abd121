package iojson

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, sample{Name: "a", Count: 2}))
	assert.Equal(t, "{\n  \"name\": \"a\",\n  \"count\": 2\n}\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteWith_MarshalError(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]any{"ch": make(chan int)}))
	assert.Empty(t, out.String())

	var e Error
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &e))
	assert.Equal(t, "error marshaling in iojson.Write", e.Message)
	assert.Contains(t, e.Data, "json_error")
}

func TestWriteLine(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, WriteLine(&out, sample{Name: "a", Count: 1}))
	require.NoError(t, WriteLine(&out, sample{Name: "b", Count: 2}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"name":"a","count":1}`, lines[0])
	assert.Equal(t, `{"name":"b","count":2}`, lines[1])
}

func TestMarshalError(t *testing.T) {
	got := MarshalError("boom", map[string]any{"id": "x"})

	var e Error
	require.NoError(t, json.Unmarshal([]byte(got), &e))
	assert.Equal(t, "boom", e.Message)
	assert.Equal(t, "x", e.Data["id"])
}

func TestFileReader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"file","count":3}`), 0o644))

	fr := &FileReader[sample]{fileFlagValue: path}
	got, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, sample{Name: "file", Count: 3}, got)
}

func TestFileReader_Stdin(t *testing.T) {
	fr := &FileReader[sample]{stdin: strings.NewReader(`{"name":"pipe","count":1}`)}
	got, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, "pipe", got.Name)
}

func TestFileReader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		reader  *FileReader[sample]
		wantErr string
	}{
		{
			name:    "missing file",
			reader:  &FileReader[sample]{fileFlagValue: filepath.Join(t.TempDir(), "nope.json")},
			wantErr: "open file",
		},
		{
			name:    "invalid json",
			reader:  &FileReader[sample]{stdin: strings.NewReader(`{`)},
			wantErr: "decode JSON",
		},
		{
			name:    "unknown field",
			reader:  &FileReader[sample]{stdin: strings.NewReader(`{"name":"x","extra":true}`)},
			wantErr: "decode JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.reader.Read()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
