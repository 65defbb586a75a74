package cmd

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/datproject/dat/progress"
)

func sampleStatus() progress.Status {
	return progress.Status{
		"/data/dir10": {Downloading: lo.ToPtr(true)},
		"/data/dir2":  {Total: &progress.Totals{FilesTotal: 3, BytesTotal: 30}},
		"/data/dir1":  {SharingLink: lo.ToPtr(true)},
	}
}

func TestStatus_NaturalOrder(t *testing.T) {
	srv := newEngine(t)
	srv.Script(sampleStatus())

	out, err := run(t, afero.NewMemMapFs(), engineArgs(srv, "status")...)
	require.NoError(t, err)

	i1 := strings.Index(out, "/data/dir1:")
	i2 := strings.Index(out, "/data/dir2:")
	i10 := strings.Index(out, "/data/dir10:")
	require.True(t, i1 >= 0 && i2 >= 0 && i10 >= 0, out)
	assert.Less(t, i1, i2)
	assert.Less(t, i2, i10)

	var decoded map[string]progress.Snapshot
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, int64(30), decoded["/data/dir2"].Totals().BytesTotal)
	assert.True(t, decoded["/data/dir10"].IsDownloading())
}

func TestStatus_QuietListsResources(t *testing.T) {
	srv := newEngine(t)
	srv.Script(sampleStatus())

	out, err := run(t, afero.NewMemMapFs(), engineArgs(srv, "status", "-q")...)
	require.NoError(t, err)
	assert.Equal(t, "/data/dir1\n/data/dir2\n/data/dir10\n", out)
}

func TestStatusNode_QuotesNumericIDs(t *testing.T) {
	doc, err := statusNode(progress.Status{"123": {}})
	require.NoError(t, err)

	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "123")
}

func TestStatus_EngineDown(t *testing.T) {
	srv := newEngine(t)
	srv.FailStatusAfter(0)

	_, err := run(t, afero.NewMemMapFs(), engineArgs(srv, "status")...)
	assert.Error(t, err)
}
