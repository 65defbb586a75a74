package cmd

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/datproject/dat/engine/enginetest"
)

const testLink = "6161616161616161616161616161616161616161616161616161616161616161"

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newEngine(t *testing.T) *enginetest.Server {
	t.Helper()
	srv := enginetest.New()
	t.Cleanup(srv.Close)
	return srv
}

// engineArgs points a command at srv and polls fast.
func engineArgs(srv *enginetest.Server, args ...string) []string {
	return append(args,
		"--host", srv.Host(),
		"--port", strconv.Itoa(srv.Port()),
		"--logspeed", "1",
		"--config", "",
	)
}

// execute runs the root command with args and returns stdout.
func execute(ctx context.Context, fs afero.Fs, out *lockedBuffer, args ...string) error {
	a := newApp(fs, out, &lockedBuffer{})
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var out lockedBuffer
	err := execute(context.Background(), fs, &out, args...)
	return out.String(), err
}
