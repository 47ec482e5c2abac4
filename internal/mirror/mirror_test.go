package mirror

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"tickshard/internal/shard"
	"tickshard/logger"
)

type fakeS3 struct {
	objects map[string][]byte
	fail    map[string]error
	keys    []string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *in.Key
	f.keys = append(f.keys, key)
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func candidates(t *testing.T, root string) []shard.Candidate {
	t.Helper()
	l := shard.NewLocator(root, false)
	start := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	return l.Expected(shard.Query{
		Symbol:  "BTCUSDT",
		Kind:    shard.Trade,
		Markets: []shard.Market{shard.Spot},
		Start:   start,
		End:     start + 3*shard.DayNanos,
	})
}

func TestHydrate(t *testing.T) {
	root := t.TempDir()
	cands := candidates(t, root)
	require.Len(t, cands, 3)

	// Day one is already local, day two is in the bucket, day three is absent.
	require.NoError(t, os.MkdirAll(filepath.Dir(cands[0].Path), 0o755))
	require.NoError(t, os.WriteFile(cands[0].Path, []byte("local"), 0o644))

	fake := &fakeS3{objects: map[string][]byte{
		"shards/" + cands[1].Rel: []byte("remote"),
	}}
	m := NewWithClient(fake, "bucket", "shards", 0)

	res, err := m.Hydrate(context.Background(), cands)
	require.NoError(t, err)
	require.Equal(t, Result{Downloaded: 1, Present: 1, Missing: 1, Bytes: 6}, res)
	require.Equal(t, []string{"shards/" + cands[1].Rel, "shards/" + cands[2].Rel}, fake.keys)

	data, err := os.ReadFile(cands[1].Path)
	require.NoError(t, err)
	require.Equal(t, "remote", string(data))

	local, err := os.ReadFile(cands[0].Path)
	require.NoError(t, err)
	require.Equal(t, "local", string(local), "present shards are not overwritten")

	_, err = os.Stat(cands[2].Path)
	require.True(t, os.IsNotExist(err))
}

func TestHydrateFailureContinues(t *testing.T) {
	root := t.TempDir()
	cands := candidates(t, root)
	fake := &fakeS3{
		objects: map[string][]byte{cands[2].Rel: []byte("x")},
		fail:    map[string]error{cands[0].Rel: errors.New("access denied")},
	}
	m := NewWithClient(fake, "bucket", "", 100)

	res, err := m.Hydrate(context.Background(), cands)
	require.NoError(t, err)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, 1, res.Missing)
	require.Equal(t, 1, res.Downloaded)
}

func TestHydrateCancelled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewWithClient(&fakeS3{}, "bucket", "", 1)
	_, err := m.Hydrate(ctx, candidates(t, root))
	require.ErrorIs(t, err, context.Canceled)
}

func TestKey(t *testing.T) {
	m := NewWithClient(&fakeS3{}, "bucket", "a/b", 0)
	require.Equal(t, "a/b/top_fut/X/2024/1/f.parquet", m.Key(shard.Candidate{Rel: "top_fut/X/2024/1/f.parquet"}))
}

func TestHydrateLogsDataFlow(t *testing.T) {
	var buf bytes.Buffer
	log := logger.GetLogger()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stdout) })

	root := t.TempDir()
	cands := candidates(t, root)
	fake := &fakeS3{objects: map[string][]byte{
		"shards/" + cands[0].Rel: []byte("a"),
		"shards/" + cands[2].Rel: []byte("b"),
	}}
	m := NewWithClient(fake, "bucket", "shards", 0)

	_, err := m.Hydrate(context.Background(), cands)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"flow_type":"data_flow"`)
	require.Contains(t, buf.String(), `"record_count":2`)
	require.Contains(t, buf.String(), `"source":"s3://bucket/shards"`)
}
