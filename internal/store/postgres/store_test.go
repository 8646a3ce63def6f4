package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JonMunkholm/mimereg/internal/config"
	"github.com/JonMunkholm/mimereg/internal/core"
)

// setupTestStore starts a PostgreSQL container and applies migrations.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		tcpostgres.WithDatabase("mimereg_test"),
		tcpostgres.WithUsername("mimereg"),
		tcpostgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, Migrate(dsn))

	pool, err := Connect(ctx, config.DatabaseConfig{
		URL:             dsn,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return New(pool)
}

func TestStoreRegistryRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	r := core.NewRegistry(s)

	jpeg, err := r.AddMimeType(ctx, "alice", core.MimeType{Type: "image", SubType: "jpeg", Description: "JPEG"})
	require.NoError(t, err)
	assert.Positive(t, jpeg.ID)

	_, err = r.AddMimeType(ctx, "alice", core.MimeType{Type: "image", SubType: "jpeg"})
	assert.True(t, core.IsValidation(err))

	ext, err := r.AddFileExtension(ctx, "alice", core.FileExtension{MimeTypeID: jpeg.ID, Extension: "jpg"})
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext.Extension)

	found, err := r.FindByExtension(ctx, "jpg")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "image/jpeg", found[0].String())

	assert.True(t, core.IsConflict(r.DeleteMimeType(ctx, jpeg.ID)))

	ext.Extension = ".jpeg"
	updated, err := r.UpdateFileExtension(ctx, "bob", ext)
	require.NoError(t, err)
	assert.Equal(t, ext.ID, updated.ID)
	assert.Equal(t, "alice", updated.CreatedBy)
	assert.True(t, ext.CreatedDate.Equal(updated.CreatedDate))
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, "bob", *updated.UpdatedBy)

	require.NoError(t, r.DeleteFileExtension(ctx, updated.Key()))
	require.NoError(t, r.DeleteMimeType(ctx, jpeg.ID))
}

func TestStoreConstraintMapping(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	var owner core.MimeType
	require.NoError(t, s.Update(ctx, func(tx core.Tx) error {
		var err error
		owner, err = tx.InsertMimeType(ctx, core.MimeType{
			Type: "text", SubType: "plain",
			Audit: core.Audit{CreatedBy: "test", CreatedDate: now},
		})
		if err != nil {
			return err
		}
		_, err = tx.InsertFileExtension(ctx, core.FileExtension{
			MimeTypeID: owner.ID, Extension: ".txt",
			Audit: core.Audit{CreatedBy: "test", CreatedDate: now},
		})
		return err
	}))

	tests := []struct {
		name string
		fn   func(tx core.Tx) error
		want error
	}{
		{
			name: "unique mime type",
			fn: func(tx core.Tx) error {
				_, err := tx.InsertMimeType(ctx, core.MimeType{Type: "text", SubType: "plain", Audit: core.Audit{CreatedBy: "test", CreatedDate: now}})
				return err
			},
			want: core.ErrDuplicateKey,
		},
		{
			name: "unique extension",
			fn: func(tx core.Tx) error {
				_, err := tx.InsertFileExtension(ctx, core.FileExtension{MimeTypeID: owner.ID, Extension: ".txt", Audit: core.Audit{CreatedBy: "test", CreatedDate: now}})
				return err
			},
			want: core.ErrDuplicateKey,
		},
		{
			name: "missing owner",
			fn: func(tx core.Tx) error {
				_, err := tx.InsertFileExtension(ctx, core.FileExtension{MimeTypeID: owner.ID + 100, Extension: ".zzz", Audit: core.Audit{CreatedBy: "test", CreatedDate: now}})
				return err
			},
			want: core.ErrMissingReference,
		},
		{
			name: "restricted delete",
			fn: func(tx core.Tx) error {
				return tx.DeleteMimeType(ctx, owner.ID)
			},
			want: core.ErrRestricted,
		},
		{
			name: "missing row",
			fn: func(tx core.Tx) error {
				_, err := tx.GetMimeType(ctx, owner.ID+100)
				return err
			},
			want: core.ErrRowNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Update(ctx, tt.fn)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStoreListPaging(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	r := core.NewRegistry(s)

	for _, sub := range []string{"png", "gif", "jpeg"} {
		_, err := r.AddMimeType(ctx, "alice", core.MimeType{Type: "image", SubType: sub})
		require.NoError(t, err)
	}

	page, err := r.ListMimeTypes(ctx, core.ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "image/jpeg", page[0].String())
	assert.Equal(t, "image/png", page[1].String())

	n, err := r.CountMimeTypes(ctx, core.ListOptions{Search: "pe"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@h:5432/db?sslmode=disable", "pgx5://u:p@h:5432/db?sslmode=disable"},
		{"postgresql://h/db", "pgx5://h/db"},
		{"pgx5://h/db", "pgx5://h/db"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
