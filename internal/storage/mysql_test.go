package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ats-agent-go/internal/storage/models"
	"ats-agent-go/internal/types"
)

// dryRunDB builds statements without touching a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/ats?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestFullUpdateWritesClearedColumns(t *testing.T) {
	db := dryRunDB(t)

	// Notes and status are deliberately empty: the update must still carry
	// their columns, or a PUT that clears them silently persists nothing.
	row, err := models.ApplicantFromType(&types.Applicant{ID: "app-1", FullName: "Jane Doe"})
	require.NoError(t, err)

	sql := fullUpdate(db, &models.Applicant{}, "app-1", row).Statement.SQL.String()
	assert.Contains(t, sql, "`notes`")
	assert.Contains(t, sql, "`status`")
	assert.Contains(t, sql, "`resume_key`")
	assert.NotContains(t, sql, "`created_at`", "creation timestamp must survive updates")
}

func TestFullUpdateLeavesPrimaryKeyAlone(t *testing.T) {
	db := dryRunDB(t)

	sql := fullUpdate(db, &models.Client{}, "cli-1", models.ClientFromType(&types.Client{ID: "cli-1"})).
		Statement.SQL.String()
	assert.NotContains(t, sql, "`id`=?", "the key is a predicate, never an assignment")
	assert.Contains(t, sql, "WHERE id = ?")
}
