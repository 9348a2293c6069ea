//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jsphweid/m300/compiler"
	"github.com/jsphweid/m300/config"
	"github.com/jsphweid/m300/export"
	"github.com/jsphweid/m300/preview"
	"github.com/jsphweid/m300/sample"
	"github.com/jsphweid/m300/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var demo []byte

func TestMain(m *testing.M) {
	var buf bytes.Buffer
	if err := sample.Write(&buf, sample.Demo()); err != nil {
		panic(err.Error())
	}
	demo = buf.Bytes()

	exitVal := m.Run()

	os.Exit(exitVal)
}

func compiledSession(t *testing.T) (*session.Session, *compiler.Result) {
	s := session.New(&preview.Recorder{})
	_, err := s.Load("demo", bytes.NewReader(demo))
	require.NoError(t, err)
	s.ToggleAll()

	res, err := s.Compile(context.Background(), compiler.Options{Speed: 1})
	require.NoError(t, err)
	return s, res
}

func TestCompileAndExportToDirectoryE2E(t *testing.T) {
	s, res := compiledSession(t)
	dir := t.TempDir()

	target, err := export.Resolve("file://"+dir, export.Options{Safe: true})
	require.NoError(t, err)
	loc, err := s.Export(context.Background(), target, "")
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(filepath.Join(dir, "demo.gcode"), loc)
	dat, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(res.Text, string(dat))
	assert.Equal(res.Report().Lines, strings.Count(string(dat), "\n"))
}

// Needs an S3 compatible endpoint, e.g. a local minio, in M300_S3_ENDPOINT
// and a bucket in M300_E2E_BUCKET.
func TestCompileAndExportToS3E2E(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.ApplyEnv(os.LookupEnv))
	bucket := os.Getenv("M300_E2E_BUCKET")
	if c.S3.Endpoint == "" || bucket == "" {
		t.Skip("no s3 endpoint configured")
	}

	s, _ := compiledSession(t)
	target, err := export.Resolve("s3://"+bucket+"/e2e", export.Options{Region: c.S3.Region, Endpoint: c.S3.Endpoint})
	require.NoError(t, err)

	loc, err := s.Export(context.Background(), target, "")
	require.NoError(t, err)
	assert.Equal(t, "s3://"+bucket+"/e2e/demo.gcode", loc)
}
