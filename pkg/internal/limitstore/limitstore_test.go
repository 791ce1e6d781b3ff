package limitstore_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3api "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/joeydtaylor/makewaves/pkg/internal/limitstore"
	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
)

func coarseGrid() safety.TableGrid {
	g := safety.DefaultGrid()
	g.Step = 0.1
	return g
}

func solver() *safety.Solver { return safety.NewSolver(safety.DefaultParams(), nil) }

func TestEncodeDecode(t *testing.T) {
	src, err := safety.NewTable([]float64{0.5, 1.0, 1.5}, []float64{0.11, 0.22, 0.33})
	if err != nil {
		t.Fatal(err)
	}
	src = src.WithFingerprint("v1 test")
	for _, codec := range []string{"snappy", "zstd", "gzip"} {
		var buf bytes.Buffer
		if err := limitstore.Encode(&buf, src, codec); err != nil {
			t.Fatalf("%s: encode: %v", codec, err)
		}
		got, err := limitstore.Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		if err != nil {
			t.Fatalf("%s: decode: %v", codec, err)
		}
		if got.Len() != 3 || got.MaxHeight(1.0) != 0.22 || got.Periods()[2] != 1.5 {
			t.Fatalf("%s: unexpected table %v %v", codec, got.Periods(), got.MaxHeights())
		}
		if got.Fingerprint() != "v1 test" {
			t.Fatalf("%s: fingerprint %q", codec, got.Fingerprint())
		}
	}
}

func TestFileStore_MissingIsNotFound(t *testing.T) {
	s := limitstore.NewFileStore(filepath.Join(t.TempDir(), "limits.parquet"))
	if _, err := s.Load(context.Background()); !errors.Is(err, limitstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadOrBuild_FileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "limits.parquet")
	store := limitstore.NewFileStore(path)

	built, err := limitstore.LoadOrBuild(ctx, store, solver(), coarseGrid())
	if err != nil {
		t.Fatalf("LoadOrBuild: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("table was not saved: %v", err)
	}
	a, b := built.MaxHeights(), loaded.MaxHeights()
	if len(a) != len(b) {
		t.Fatalf("row count %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs after reload", i)
		}
	}

	again, err := limitstore.LoadOrBuild(ctx, store, solver(), coarseGrid())
	if err != nil {
		t.Fatal(err)
	}
	if again.Len() != built.Len() {
		t.Fatal("second call should load the saved table")
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    int
	puts    int
	putErr  error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) GetObject(_ context.Context, in *s3api.GetObjectInput, _ ...func(*s3api.Options)) (*s3api.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3api.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3api.PutObjectInput, _ ...func(*s3api.Options)) (*s3api.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if aws.ToString(in.ContentType) != limitstore.ContentType {
		return nil, errors.New("unexpected content type")
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3api.PutObjectOutput{}, nil
}

func TestLoadOrBuild_S3Store(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	store := limitstore.NewS3Store(api, "tank", "limits/default.parquet")

	first, err := limitstore.LoadOrBuild(ctx, store, solver(), coarseGrid())
	if err != nil {
		t.Fatal(err)
	}
	if api.puts != 1 {
		t.Fatalf("expected one upload, got %d", api.puts)
	}
	second, err := limitstore.LoadOrBuild(ctx, store, solver(), coarseGrid())
	if err != nil {
		t.Fatal(err)
	}
	if api.puts != 1 || api.gets != 2 {
		t.Fatalf("expected cached load, puts=%d gets=%d", api.puts, api.gets)
	}
	if second.MaxHeight(2.0) != first.MaxHeight(2.0) {
		t.Fatal("loaded table differs from built table")
	}
}

func TestLoadOrBuild_RebuildsStaleTable(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	store := limitstore.NewS3Store(api, "tank", "limits.parquet")
	stale, _ := safety.NewTable([]float64{1, 2}, []float64{0.1, 0.1})
	if err := store.Save(ctx, stale); err != nil {
		t.Fatal(err)
	}

	got, err := limitstore.LoadOrBuild(ctx, store, solver(), coarseGrid())
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != len(coarseGrid().Periods()) {
		t.Fatalf("expected rebuilt table, got %d rows", got.Len())
	}
}

func TestLoadOrBuild_SaveFailureStillReturnsTable(t *testing.T) {
	api := newFakeS3()
	api.putErr = errors.New("access denied")
	store := limitstore.NewS3Store(api, "tank", "limits.parquet")

	got, err := limitstore.LoadOrBuild(context.Background(), store, solver(), coarseGrid())
	if err != nil {
		t.Fatalf("save failure should not fail the build: %v", err)
	}
	if got.Len() == 0 {
		t.Fatal("expected a table")
	}
}

type brokenStore struct{}

func (brokenStore) Load(context.Context) (*safety.Table, error) {
	return nil, errors.New("disk on fire")
}
func (brokenStore) Save(context.Context, *safety.Table) error { return nil }

func TestLoadOrBuild_PropagatesLoadErrors(t *testing.T) {
	if _, err := limitstore.LoadOrBuild(context.Background(), brokenStore{}, solver(), coarseGrid()); err == nil {
		t.Fatal("expected load error")
	}
}

func TestLoadOrBuild_RebuildsWhenLimitsChange(t *testing.T) {
	ctx := context.Background()
	store := limitstore.NewFileStore(filepath.Join(t.TempDir(), "limits.parquet"))
	grid := safety.DefaultGrid()
	grid.Step = 0.5

	if _, err := limitstore.LoadOrBuild(ctx, store, solver(), grid); err != nil {
		t.Fatal(err)
	}

	p := safety.DefaultParams()
	p.MaxHalfStroke = 0.04
	tight := safety.NewSolver(p, nil)
	got, err := limitstore.LoadOrBuild(ctx, store, tight, grid)
	if err != nil {
		t.Fatal(err)
	}
	for _, period := range []float64{2.0, 3.0} {
		limit := got.MaxHeight(period)
		if want := tight.SafeHeight(grid.ProbeHeight, period); limit != want {
			t.Fatalf("T=%.1f: table max %.4f, solver safe %.4f", period, limit, want)
		}
		if stroke := tight.HeightToStrokeAmp(limit, period); stroke > p.MaxHalfStroke+1e-9 {
			t.Fatalf("T=%.1f: stroke %.4f exceeds half-stroke %.2f", period, stroke, p.MaxHalfStroke)
		}
	}

	saved, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Fingerprint() != safety.Fingerprint(p, grid) {
		t.Fatalf("rebuilt table not saved, fingerprint %q", saved.Fingerprint())
	}
}

func TestLoadOrBuild_RebuildsWhenProbeHeightChanges(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	store := limitstore.NewS3Store(api, "tank", "limits.parquet")
	grid := coarseGrid()

	if _, err := limitstore.LoadOrBuild(ctx, store, solver(), grid); err != nil {
		t.Fatal(err)
	}
	grid.ProbeHeight = 0.05
	got, err := limitstore.LoadOrBuild(ctx, store, solver(), grid)
	if err != nil {
		t.Fatal(err)
	}
	if api.puts != 2 {
		t.Fatalf("expected a rebuild after probe height change, puts=%d", api.puts)
	}
	if h := got.MaxHeight(2.0); h > 0.05 {
		t.Fatalf("probe height not applied, max %.4f", h)
	}
}

func TestLoadOrBuild_RebuildsTableWithoutFingerprint(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	store := limitstore.NewS3Store(api, "tank", "limits.parquet")
	built, err := safety.BuildTable(ctx, solver(), coarseGrid())
	if err != nil {
		t.Fatal(err)
	}
	legacy, _ := safety.NewTable(built.Periods(), built.MaxHeights())
	if err := store.Save(ctx, legacy); err != nil {
		t.Fatal(err)
	}
	if _, err := limitstore.LoadOrBuild(ctx, store, solver(), coarseGrid()); err != nil {
		t.Fatal(err)
	}
	if api.puts != 2 {
		t.Fatalf("table without provenance should be rebuilt, puts=%d", api.puts)
	}
}
