package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/mimereg/internal/seed"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SEED_FETCH_RETRIES", "0")
}

func TestSeedPrintsReport(t *testing.T) {
	memoryEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/image.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("Name,Template,Reference\njpeg,image/jpeg,[RFC2046]\npng,image/png,[RFC2083]\n"))
	}))
	defer srv.Close()
	t.Setenv("SEED_FEED_URL", srv.URL+"/feed/")
	t.Setenv("SEED_DOCUMENTS", "image")

	out, err := run(t, "seed")
	require.NoError(t, err)

	var report seed.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.MimeTypes.Documents)
	assert.Equal(t, 2, report.MimeTypes.Inserted)
	assert.Zero(t, report.MimeTypes.Errors)
	assert.Positive(t, report.FileExtensions.Inserted)
}

func TestLookupOnEmptyStore(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "lookup", "jpg")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, "lookup")
	assert.Error(t, err, "lookup needs exactly one argument")

	_, err = run(t, "lookup", " ")
	assert.Error(t, err, "blank extension is rejected")
}

func TestMigrateRequiresPostgres(t *testing.T) {
	memoryEnv(t)

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER=postgres")
}

func TestEnvFileOverridesEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	_, err := run(t, "lookup", "jpg")
	require.Error(t, err, "postgres without DATABASE_URL must fail validation")

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE_DRIVER=memory\n"), 0o600))

	_, err = run(t, "--env-file", envFile, "lookup", "jpg")
	require.NoError(t, err)

	_, err = run(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "lookup", "jpg")
	assert.Error(t, err)
}

func TestPrintError(t *testing.T) {
	memoryEnv(t)

	_, lookupErr := run(t, "lookup", " ")
	require.Error(t, lookupErr)

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "registry error shows user message and cause",
			err:  lookupErr,
			want: []string{"Error: ", "(Code: REG001)", "cause: "},
		},
		{
			name: "unknown error is printed as is",
			err:  errors.New("accepts 1 arg(s), received 0"),
			want: []string{"Error: accepts 1 arg(s), received 0\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printError(&buf, tt.err)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
