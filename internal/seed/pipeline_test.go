package seed

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/mimereg/internal/core"
	"github.com/JonMunkholm/mimereg/internal/store/memory"
)

// feedServer serves "<name>.csv" from docs; unknown documents are 404.
func feedServer(t *testing.T, docs map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSuffix(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], ".csv")
		body, ok := docs[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestPipeline(t *testing.T, reg Registry, srvURL string, documents []string, assoc []Association) *Pipeline {
	t.Helper()
	return New(reg, newTestFetcher(t, srvURL, 0, 1<<20), Options{
		Documents:        documents,
		FetchConcurrency: 2,
		Associations:     assoc,
	})
}

const imageDoc = "Name,Template,Reference\n" +
	"jpeg,image/jpeg,[RFC2046]\n" +
	"broken,row\n"

func TestRunImageDocument(t *testing.T) {
	reg := core.NewRegistry(memory.New())
	srv := feedServer(t, map[string]string{"image": imageDoc})
	p := newTestPipeline(t, reg, srv.URL, []string{"image"}, []Association{})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.MimeTypes.Documents)
	assert.Equal(t, 1, report.MimeTypes.Inserted)
	assert.Equal(t, 1, report.MimeTypes.Skipped)
	assert.Zero(t, report.MimeTypes.Errors)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, StateCompleted, p.State())

	m, err := reg.MimeTypeByName(context.Background(), "image", "jpeg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", m.Description)
	assert.Equal(t, core.SeedActor, m.CreatedBy)
}

func TestRunRowRules(t *testing.T) {
	reg := core.NewRegistry(memory.New())
	doc := "\xEF\xBB\xBFName,Template,Reference\n" +
		"png,,[RFC2083]\n" + // blank template: type from document name
		"a,b/c/d,[x]\n" + // too many parts
		"nosub,image/,[x]\n" + // empty subtype
		"jpeg,image/jpeg,[x]\n" +
		"jpeg-again,image/jpeg,[x]\n" + // already present
		"\"quoted, name\",image/x-quoted,[x]\n" +
		"too,many,fields,here\n"
	srv := feedServer(t, map[string]string{"image": doc})
	p := newTestPipeline(t, reg, srv.URL, []string{"image"}, []Association{})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.MimeTypes.Inserted)
	assert.Equal(t, 4, report.MimeTypes.Skipped)

	for _, sub := range []string{"png", "jpeg", "x-quoted"} {
		_, err := reg.MimeTypeByName(context.Background(), "image", sub)
		assert.NoError(t, err, "image/%s", sub)
	}
	quoted, _ := reg.MimeTypeByName(context.Background(), "image", "x-quoted")
	assert.Equal(t, "quoted, name", quoted.Description)
}

func TestRunLongDescriptionIsTruncated(t *testing.T) {
	reg := core.NewRegistry(memory.New())
	long := strings.Repeat("n", core.MaxDescriptionLen+20)
	srv := feedServer(t, map[string]string{"text": "Name,Template,Reference\n" + long + ",text/x-long,[x]\n"})
	p := newTestPipeline(t, reg, srv.URL, []string{"text"}, []Association{})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	m, err := reg.MimeTypeByName(context.Background(), "text", "x-long")
	require.NoError(t, err)
	assert.Len(t, m.Description, core.MaxDescriptionLen)
}

func TestRunFileExtensionStage(t *testing.T) {
	reg := core.NewRegistry(memory.New())
	srv := feedServer(t, map[string]string{"image": imageDoc})
	p := newTestPipeline(t, reg, srv.URL, []string{"image"}, []Association{
		{".jpg", "image", "jpeg"},
		{"jpeg", "image", "jpeg"},
		{".png", "image", "png"},  // no such mime type
		{".jpg", "image", "jpeg"}, // repeated extension
	})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.FileExtensions.Inserted)
	assert.Equal(t, 2, report.FileExtensions.Skipped)
	assert.Zero(t, report.FileExtensions.Errors)

	_, err = reg.MimeTypeByName(context.Background(), "image", "png")
	assert.True(t, core.IsNotFound(err), "stage must not create mime types")

	found, err := reg.FindByExtension(context.Background(), "jpeg")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "image/jpeg", found[0].String())
}

func TestRunTwiceIsNoOp(t *testing.T) {
	reg := core.NewRegistry(memory.New())
	srv := feedServer(t, map[string]string{"image": imageDoc})
	assoc := []Association{{".jpg", "image", "jpeg"}}
	p := newTestPipeline(t, reg, srv.URL, []string{"image"}, assoc)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, second.MimeTypes.AlreadySeeded)
	assert.True(t, second.FileExtensions.AlreadySeeded)
	assert.Zero(t, second.MimeTypes.Inserted)
	assert.Zero(t, second.FileExtensions.Inserted)

	total, err := reg.CountMimeTypes(context.Background(), core.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRunAllDocumentsFail(t *testing.T) {
	reg := core.NewRegistry(memory.New())
	srv := feedServer(t, map[string]string{})
	docs := []string{"application", "audio", "font"}
	p := newTestPipeline(t, reg, srv.URL, docs, []Association{{".jpg", "image", "jpeg"}})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, p.State())
	assert.Equal(t, len(docs), report.MimeTypes.Documents)
	assert.Equal(t, len(docs), report.MimeTypes.Errors)
	assert.Zero(t, report.MimeTypes.Inserted)
	assert.Equal(t, 1, report.FileExtensions.Skipped)
}

func TestRunOneDocumentFailureIsIsolated(t *testing.T) {
	reg := core.NewRegistry(memory.New())
	srv := feedServer(t, map[string]string{
		"image": imageDoc,
		"text":  "Name,Template,Reference\nplain,text/plain,[RFC2046]\n",
	})
	p := newTestPipeline(t, reg, srv.URL, []string{"image", "audio", "text"}, []Association{})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.MimeTypes.Documents)
	assert.Equal(t, 1, report.MimeTypes.Errors)
	assert.Equal(t, 2, report.MimeTypes.Inserted)
}

// failingRegistry wraps a Registry and injects errors.
type failingRegistry struct {
	Registry
	countErr error
	probeErr error
}

func (f failingRegistry) CountMimeTypes(ctx context.Context, opts core.ListOptions) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.Registry.CountMimeTypes(ctx, opts)
}

func (f failingRegistry) FileExtensionByValue(ctx context.Context, ext string) (core.FileExtension, error) {
	if f.probeErr != nil {
		return core.FileExtension{}, f.probeErr
	}
	return f.Registry.FileExtensionByValue(ctx, ext)
}

func TestRunStoreFailureAborts(t *testing.T) {
	boom := errors.New("connection refused")
	reg := failingRegistry{Registry: core.NewRegistry(memory.New()), countErr: boom}
	srv := feedServer(t, map[string]string{"image": imageDoc})
	p := newTestPipeline(t, reg, srv.URL, []string{"image"}, nil)

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateNotStarted, p.State())
}

func TestRunFileExtensionStageErrorIsCounted(t *testing.T) {
	reg := failingRegistry{Registry: core.NewRegistry(memory.New()), probeErr: errors.New("connection reset")}
	srv := feedServer(t, map[string]string{"image": imageDoc})
	p := newTestPipeline(t, reg, srv.URL, []string{"image"}, []Association{{".jpg", "image", "jpeg"}})

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.FileExtensions.Errors)
	assert.Zero(t, report.FileExtensions.Inserted)
	assert.Equal(t, StateCompleted, p.State())
}

// fetcherFunc adapts a function to the Fetcher interface.
type fetcherFunc func(ctx context.Context, document string) (io.ReadCloser, error)

func (f fetcherFunc) Fetch(ctx context.Context, document string) (io.ReadCloser, error) {
	return f(ctx, document)
}

func TestRunDocumentParseErrorIsCounted(t *testing.T) {
	reset := errors.New("connection reset by peer")
	bodies := map[string]func() io.Reader{
		"image": func() io.Reader { return strings.NewReader(imageDoc) },
		// fails after the header and one row
		"text": func() io.Reader {
			return io.MultiReader(
				strings.NewReader("Name,Template,Reference\nplain,text/plain,[RFC2046]\n"),
				iotest.ErrReader(reset),
			)
		},
		// fails before any data
		"audio": func() io.Reader { return iotest.ErrReader(reset) },
	}
	fetcher := fetcherFunc(func(_ context.Context, document string) (io.ReadCloser, error) {
		return io.NopCloser(bodies[document]()), nil
	})

	reg := core.NewRegistry(memory.New())
	p := New(reg, fetcher, Options{
		Documents:        []string{"text", "audio", "image"},
		FetchConcurrency: 2,
		Associations:     []Association{},
	})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.MimeTypes.Documents)
	assert.Equal(t, 2, report.MimeTypes.Errors)
	assert.Equal(t, 2, report.MimeTypes.Inserted, "rows read before the failure and later documents are kept")
	assert.Equal(t, StateCompleted, p.State())

	_, err = reg.MimeTypeByName(context.Background(), "text", "plain")
	assert.NoError(t, err)
	_, err = reg.MimeTypeByName(context.Background(), "image", "jpeg")
	assert.NoError(t, err)
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  []string
		want string
		ok   bool
	}{
		{"template", []string{"jpeg", "image/jpeg", "[x]"}, "image/jpeg", true},
		{"blank template", []string{"png", " ", "[x]"}, "image/png", true},
		{"two fields", []string{"jpeg", "image/jpeg"}, "", false},
		{"no slash", []string{"jpeg", "jpeg", "[x]"}, "", false},
		{"empty type", []string{"jpeg", "/jpeg", "[x]"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := parseRecord("image", tt.rec)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, m.String())
			}
		})
	}
}

func TestCannedAssociationsAreUnique(t *testing.T) {
	seen := make(map[string]bool, len(CannedAssociations))
	for _, a := range CannedAssociations {
		ext := core.NormalizeExtension(a.Extension)
		assert.False(t, seen[ext], "duplicate canned extension %s", ext)
		seen[ext] = true
		assert.NotEmpty(t, a.Type)
		assert.NotEmpty(t, a.SubType)
	}
}
