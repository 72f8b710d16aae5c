package frontmatter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mesh-intelligence/inkpot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback string
		want     *types.Post
		wantErr  error
	}{
		{
			name:     "full header",
			input:    "---\nslug: bubble\ntitle: Bubble sort\npublished: true\ncreated_at: 2025-01-02T15:04:05Z\n---\n## Steps\n<SortingVisualizer />\n",
			fallback: "ignored",
			want: &types.Post{
				Slug:      "bubble",
				Title:     "Bubble sort",
				Published: true,
				CreatedAt: time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC),
				Content:   "## Steps\n<SortingVisualizer />\n",
			},
		},
		{
			name:     "slug falls back to file name",
			input:    "---\ntitle: Hi\n---\nbody",
			fallback: "hi",
			want:     &types.Post{Slug: "hi", Title: "Hi", Content: "body"},
		},
		{
			name:     "crlf line endings",
			input:    "---\r\ntitle: Windows\r\n---\r\nbody\r\n",
			fallback: "win",
			want:     &types.Post{Slug: "win", Title: "Windows", Content: "body\n"},
		},
		{
			name:     "header only",
			input:    "---\ntitle: Empty\n---",
			fallback: "empty",
			want:     &types.Post{Slug: "empty", Title: "Empty"},
		},
		{
			name:    "no front matter",
			input:   "# just markdown",
			wantErr: ErrNoFrontMatter,
		},
		{
			name:    "unterminated",
			input:   "---\ntitle: Open\nbody",
			wantErr: ErrUnterminated,
		},
		{
			name:     "missing title",
			input:    "---\nslug: x\n---\nbody",
			fallback: "x",
			wantErr:  types.ErrInvalidTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input), tt.fallback)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFileAndFormat(t *testing.T) {
	p := &types.Post{
		Slug:      "activation",
		Title:     "Activation functions",
		Published: true,
		CreatedAt: time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC),
		Content:   "<ActivationPlayground />\n",
	}
	data, err := Format(p)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "other-name.md")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestFormatOmitsZeroCreatedAt(t *testing.T) {
	data, err := Format(&types.Post{Slug: "s", Title: "T"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "created_at")
}
