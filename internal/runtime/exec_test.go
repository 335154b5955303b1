package runtime

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEnv(t *testing.T) {
	tests := []struct {
		name      string
		base      []string
		overrides []string
		want      []string
	}{
		{
			name:      "release variables override image defaults",
			base:      []string{"PATH=/usr/bin", "CRUXREL_VERSION=stale"},
			overrides: []string{"CRUXREL_VERSION=1.2.0+ab12cd3"},
			want:      []string{"PATH=/usr/bin", "CRUXREL_VERSION=1.2.0+ab12cd3"},
		},
		{
			name:      "adds new keys",
			base:      []string{"PATH=/usr/bin"},
			overrides: []string{"CRUXREL_ARCH=arm64"},
			want:      []string{"PATH=/usr/bin", "CRUXREL_ARCH=arm64"},
		},
		{
			name:      "empty base",
			overrides: []string{"A=1"},
			want:      []string{"A=1"},
		},
		{
			name: "both empty",
			want: []string{},
		},
		{
			name: "value keeps embedded equals",
			base: []string{"FLAGS=-X main.v=1"},
			want: []string{"FLAGS=-X main.v=1"},
		},
		{
			name:      "malformed entries skipped",
			base:      []string{"NOEQUALS", "A=1"},
			overrides: []string{"ALSO_BAD", "B=2"},
			want:      []string{"A=1", "B=2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, mergeEnv(tt.base, tt.overrides))
		})
	}
}

func TestNextExecID(t *testing.T) {
	a := nextExecID()
	b := nextExecID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestDoneReaderDrained(t *testing.T) {
	dr := newDoneReader(strings.NewReader("echo hi\n"))
	select {
	case <-dr.Drained():
		t.Fatal("drained before EOF")
	default:
	}

	data, err := io.ReadAll(dr)
	require.NoError(t, err)
	assert.Equal(t, "echo hi\n", string(data))

	select {
	case <-dr.Drained():
	default:
		t.Fatal("not drained after EOF")
	}

	n, err := dr.Read(make([]byte, 1))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("pipe closed") }

func TestDoneReaderDrainedOnError(t *testing.T) {
	dr := newDoneReader(failingReader{})
	_, err := dr.Read(make([]byte, 8))
	require.Error(t, err)

	select {
	case <-dr.Drained():
	default:
		t.Fatal("not drained after error")
	}
}
