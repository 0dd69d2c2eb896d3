package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObject struct {
	bytes.Buffer
	ctx       context.Context
	closeErr  error
	closed    bool
	abandoned bool
}

func (o *memObject) Close() error {
	o.closed = true
	if o.ctx.Err() != nil {
		o.abandoned = true
		return o.ctx.Err()
	}
	return o.closeErr
}

func newTestArchiver(objects map[string]*memObject, closeErr error) *GCSArchiver {
	return &GCSArchiver{
		bucket:  "uploads",
		prefix:  "imports/",
		timeout: time.Second,
		open: func(ctx context.Context, key string) io.WriteCloser {
			o := &memObject{ctx: ctx, closeErr: closeErr}
			objects[key] = o
			return o
		},
	}
}

func TestArchiveUploadsUnderPrefix(t *testing.T) {
	objects := map[string]*memObject{}
	a := newTestArchiver(objects, nil)

	uri, err := a.Archive(context.Background(), "acc-1/imp-1/trades.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)

	assert.Equal(t, "gs://uploads/imports/acc-1/imp-1/trades.csv", uri)
	obj := objects["imports/acc-1/imp-1/trades.csv"]
	require.NotNil(t, obj)
	assert.True(t, obj.closed)
	assert.False(t, obj.abandoned)
	assert.Equal(t, "a,b\n1,2\n", obj.String())
}

func TestArchiveReportsFinalizeError(t *testing.T) {
	a := newTestArchiver(map[string]*memObject{}, errors.New("permission denied"))

	_, err := a.Archive(context.Background(), "k.csv", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finalize upload imports/k.csv")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestArchiveReportsCopyError(t *testing.T) {
	objects := map[string]*memObject{}
	a := newTestArchiver(objects, nil)

	_, err := a.Archive(context.Background(), "k.csv", failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	obj := objects["imports/k.csv"]
	assert.True(t, obj.closed)
	assert.True(t, obj.abandoned, "partial upload must be cancelled, not finalized")
}

func TestNewGCSArchiverRequiresBucket(t *testing.T) {
	_, err := NewGCSArchiver(context.Background(), "")
	assert.Error(t, err)
}
