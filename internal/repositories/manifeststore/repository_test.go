package manifeststore_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/huymai96/package-confirmation-app/internal/repositories/manifeststore"
	"github.com/huymai96/package-confirmation-app/pkg/database"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "package_confirmation"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestRepository_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := manifeststore.NewRepository(db, getTestLogger())
	ctx := context.Background()

	content := []byte("\"Tracking\",\"PO\"\n\"1Z999AA10123456784\",\"8001234B\"\n")
	row, err := repo.Insert(ctx, "sanmar_0601.csv", "sanmar", content)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, row.ID)
	assert.Equal(t, int64(len(content)), row.Size)

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Empty(t, r.Content, "list must not load blob content")
	}

	fetched, err := repo.GetContent(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, content, fetched.Content)
	assert.Equal(t, "sanmar", fetched.SourceType)

	require.NoError(t, repo.Delete(ctx, row.ID))

	_, err = repo.GetContent(ctx, row.ID)
	assertNotFound(t, err)

	err = repo.Delete(ctx, row.ID)
	assertNotFound(t, err)
}
