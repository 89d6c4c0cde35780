package seed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/formulary/internal/refdata"
	"github.com/mesh-intelligence/formulary/internal/store"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

var analgesics = types.Document{Categories: []types.DocumentCategory{
	{Name: "Analgesics", Groups: []types.DocumentGroup{
		{Title: "NSAIDs", Items: []string{"Ibuprofen", "Naproxen"}},
		{Title: "Opioids", Items: []string{"Morphine"}},
	}},
	{Name: "Antibiotics"},
}}

func TestDecode_HandWrittenDocuments(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{
			name:   "yaml",
			format: FormatYAML,
			input: `categories:
  - name: Analgesics
    groups:
      - title: NSAIDs
        items: [Ibuprofen, Naproxen]
      - title: Opioids
        items:
          - Morphine
  - name: Antibiotics
`,
		},
		{
			name:   "toml",
			format: FormatTOML,
			input: `[[categories]]
name = "Analgesics"

  [[categories.groups]]
  title = "NSAIDs"
  items = ["Ibuprofen", "Naproxen"]

  [[categories.groups]]
  title = "Opioids"
  items = ["Morphine"]

[[categories]]
name = "Antibiotics"
`,
		},
		{
			name:   "jsonl",
			format: FormatJSONL,
			input: `{"name":"Analgesics","groups":[{"title":"NSAIDs","items":["Ibuprofen","Naproxen"]},{"title":"Opioids","items":["Morphine"]}]}

{"name":"Antibiotics","unknown_field":true}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.input), tt.format)
			require.NoError(t, err)
			assert.Equal(t, analgesics, doc)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatTOML, FormatJSONL} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, analgesics, format))
			got, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, analgesics, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(strings.NewReader("{}"), Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Decode(strings.NewReader("{\"name\":\"ok\"}\nnot json\n"), FormatJSONL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	doc, err := Decode(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, doc.Categories)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"seed.yaml", FormatYAML, false},
		{"seed.YML", FormatYAML, false},
		{"dir/seed.toml", FormatTOML, false},
		{"export.jsonl", FormatJSONL, false},
		{"export.ndjson", FormatJSONL, false},
		{"export.csv", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteFileReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.toml")

	require.NoError(t, WriteFile(path, analgesics, FormatTOML))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, analgesics, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	_, err = ReadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func newRepo(t *testing.T) *refdata.Repository {
	t.Helper()
	s, err := store.Open(context.Background(), types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, store.ReferenceSchema)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return refdata.New(s)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	require.NoError(t, Apply(ctx, r, analgesics))
	got, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, analgesics, got)

	// Applying again merges categories and groups but appends items.
	require.NoError(t, Apply(ctx, r, types.Document{Categories: []types.DocumentCategory{
		{Name: "Analgesics", Groups: []types.DocumentGroup{{Title: "NSAIDs", Items: []string{"Diclofenac"}}}},
	}}))
	data, err := r.MedicationData(ctx)
	require.NoError(t, err)
	require.Len(t, data["Analgesics"], 2)
	assert.Len(t, data["Analgesics"][0].Items, 3)
}

func TestStarter(t *testing.T) {
	a := Starter()
	b := Starter()
	require.NotEmpty(t, a.Categories)
	a.Categories[0].Groups[0].Items[0] = "changed"
	assert.NotEqual(t, a, b, "Starter returns independent copies")

	ctx := context.Background()
	r := newRepo(t)
	require.NoError(t, Apply(ctx, r, Starter()))
	require.NoError(t, r.CommitPending(ctx))

	got, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, Starter(), got)
}
