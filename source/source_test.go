package source

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/dsnet/compress/bzip2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func bz(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, nil)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestDirOpenAndList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "angles.csv"), []byte("theta,phi\n0,0\n"))
	writeFile(t, filepath.Join(root, "dipole_data", "vi-0_ai-1.csv"), []byte("1\n"))
	writeFile(t, filepath.Join(root, "dipole_data", "vi-0_ai-0.csv"), []byte("1\n"))

	d := NewDir(root)
	ctx := context.Background()

	rc, err := d.Open(ctx, "angles.csv")
	require.NoError(t, err)
	assert.Equal(t, "theta,phi\n0,0\n", readAll(t, rc))

	_, err = d.Open(ctx, "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	// directories are not data files
	_, err = d.Open(ctx, "dipole_data")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = OpenData(ctx, d, "dipole_data/")
	assert.ErrorIs(t, err, ErrNotFound)

	// traversal stays inside the root
	_, err = d.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := d.List(ctx, "dipole_data/")
	require.NoError(t, err)
	assert.Equal(t, []string{"dipole_data/vi-0_ai-0.csv", "dipole_data/vi-0_ai-1.csv"}, names)
}

func TestOpenDataFallsBackToBzip2(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "brain_verts.csv.bz2"), bz(t, "R,A,S\n1,2,3\n"))
	writeFile(t, filepath.Join(root, "plain.csv"), []byte("x\n"))

	d := NewDir(root)
	ctx := context.Background()

	rc, err := OpenData(ctx, d, "brain_verts.csv")
	require.NoError(t, err)
	assert.Equal(t, "R,A,S\n1,2,3\n", readAll(t, rc))

	rc, err = OpenData(ctx, d, "brain_verts.csv.bz2")
	require.NoError(t, err)
	assert.Equal(t, "R,A,S\n1,2,3\n", readAll(t, rc))

	rc, err = OpenData(ctx, d, "plain.csv")
	require.NoError(t, err)
	assert.Equal(t, "x\n", readAll(t, rc))

	_, err = OpenData(ctx, d, "nothing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/_data/angles.csv":
			w.Write([]byte("theta,phi\n"))
		case "/_data/broken.csv":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL+"/_data/", nil)
	ctx := context.Background()

	rc, err := h.Open(ctx, "angles.csv")
	require.NoError(t, err)
	assert.Equal(t, "theta,phi\n", readAll(t, rc))

	_, err = h.Open(ctx, "nope.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.Open(ctx, "broken.csv")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = h.List(ctx, "")
	assert.ErrorIs(t, err, ErrUnsupported)
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string]string
	pages   int
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

// ListObjectsV2WithContext returns one key per page to exercise pagination.
func (f *fakeS3) ListObjectsV2WithContext(ctx aws.Context, in *s3.ListObjectsV2Input, _ ...request.Option) (*s3.ListObjectsV2Output, error) {
	keys := []string{}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.StringValue(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	f.pages++
	if start >= len(keys) {
		return &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}, nil
	}
	out := &s3.ListObjectsV2Output{
		Contents:    []*s3.Object{{Key: aws.String(keys[start])}},
		IsTruncated: aws.Bool(start+1 < len(keys)),
	}
	if start+1 < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(start + 1))
	}
	return out, nil
}

func TestS3(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"sim/angles.csv":                "theta,phi\n",
		"sim/dipole_data/vi-0_ai-0.csv": "1\n",
		"sim/dipole_data/vi-1_ai-0.csv": "2\n",
	}}
	s := NewS3WithClient(fake, "bucket", "/sim/")
	ctx := context.Background()

	rc, err := s.Open(ctx, "angles.csv")
	require.NoError(t, err)
	assert.Equal(t, "theta,phi\n", readAll(t, rc))

	_, err = s.Open(ctx, "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := s.List(ctx, "dipole_data/")
	require.NoError(t, err)
	assert.Equal(t, []string{"dipole_data/vi-0_ai-0.csv", "dipole_data/vi-1_ai-0.csv"}, names)
	assert.Equal(t, 2, fake.pages)
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "ftp"})
	assert.Error(t, err)

	src, err := New(context.Background(), Config{Dir: "somewhere"})
	require.NoError(t, err)
	assert.IsType(t, &Dir{}, src)
}
