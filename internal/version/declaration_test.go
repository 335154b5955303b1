package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeclaration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ident   string
		value   string
		quote   byte
		wantErr bool
	}{
		{
			name:  "double quotes",
			input: "__version__ = \"1.2.0\"\n",
			ident: "__version__",
			value: "1.2.0",
			quote: '"',
		},
		{
			name:  "single quotes and tight operator",
			input: "__version__='15.9'\n",
			ident: "__version__",
			value: "15.9",
			quote: '\'',
		},
		{
			name:  "surrounded by other content",
			input: "# comment\nimport os\n\n__version__ = \"2.0\"  # trailing\nOTHER = 1\n",
			ident: "__version__",
			value: "2.0",
			quote: '"',
		},
		{
			name:  "other quoted assignments ignored by name",
			input: "name = \"app\"\n__version__ = \"3.1\"\n",
			ident: "__version__",
			value: "3.1",
			quote: '"',
		},
		{
			name:  "any identifier",
			input: "VERSION = \"0.1\"\n",
			value: "0.1",
			quote: '"',
		},
		{
			name:    "missing",
			input:   "print('hi')\n",
			ident:   "__version__",
			wantErr: true,
		},
		{
			name:    "unquoted value",
			input:   "__version__ = 12\n",
			ident:   "__version__",
			wantErr: true,
		},
		{
			name:    "mismatched quotes",
			input:   "__version__ = \"1.0'\n",
			ident:   "__version__",
			wantErr: true,
		},
		{
			name:    "ambiguous",
			input:   "__version__ = \"1\"\n__version__ = \"2\"\n",
			ident:   "__version__",
			wantErr: true,
		},
		{
			name:    "commented out",
			input:   "# __version__ = \"1\"\n",
			ident:   "__version__",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl, err := ParseDeclaration([]byte(tt.input), tt.ident)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrVersionFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.value, decl.Value())
			assert.Equal(t, tt.quote, decl.Assignment().Quote)
			assert.Equal(t, tt.input, string(decl.Bytes()), "round trip must be byte identical")
		})
	}
}

func TestWithValuePreservesSurroundings(t *testing.T) {
	input := "\"\"\"Docstring.\"\"\"\n\n    __version__  =  '1.2.0'\t# keep\r\nrest\n"
	decl, err := ParseDeclaration([]byte(input), "__version__")
	require.NoError(t, err)

	stamped, err := decl.WithValue("1.2.0.ab12cd3")
	require.NoError(t, err)

	want := "\"\"\"Docstring.\"\"\"\n\n    __version__  =  '1.2.0.ab12cd3'\t# keep\r\nrest\n"
	assert.Equal(t, want, string(stamped.Bytes()))
	assert.Equal(t, "1.2.0", decl.Value(), "original declaration is unchanged")
}

func TestWithValueRejectsUnquotable(t *testing.T) {
	decl, err := ParseDeclaration([]byte(`v = "1"`), "v")
	require.NoError(t, err)

	_, err = decl.WithValue(`1"2`)
	assert.ErrorIs(t, err, ErrVersionFormat)

	_, err = decl.WithValue("1\n2")
	assert.ErrorIs(t, err, ErrVersionFormat)
}
