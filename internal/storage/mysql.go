package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/storage/models"
	"ats-agent-go/internal/types"
)

// ErrNotFound reports a lookup for a record that does not exist.
var ErrNotFound = errors.New("record not found")

// MySQL wraps the relational store holding the three collections.
type MySQL struct {
	db *gorm.DB
}

func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.ConnectTimeoutSeconds)

	logLevel := gormlogger.LogLevel(cfg.LogLevel)
	if logLevel < gormlogger.Silent || logLevel > gormlogger.Info {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	m := &MySQL{db: db}
	if err := m.autoMigrateSchema(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MySQL) autoMigrateSchema() error {
	if err := m.db.AutoMigrate(&models.Applicant{}, &models.JobOrder{}, &models.Client{}); err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for tests and migrations.
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// fullUpdate writes every column of row, zero values included: a PUT that
// clears a field must persist the clear. GORM's struct Updates would skip
// zero-valued fields. The key and creation timestamp stay untouched.
func fullUpdate(tx *gorm.DB, model any, id string, row any) *gorm.DB {
	return tx.Model(model).Where("id = ?", id).Select("*").Omit("id", "created_at").Updates(row)
}

// --- applicants ---

func (m *MySQL) CreateApplicant(ctx context.Context, a *types.Applicant) error {
	row, err := models.ApplicantFromType(a)
	if err != nil {
		return fmt.Errorf("encode applicant: %w", err)
	}
	if err := m.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create applicant: %w", err)
	}
	return nil
}

func (m *MySQL) GetApplicant(ctx context.Context, id string) (*types.Applicant, error) {
	var row models.Applicant
	err := m.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("applicant %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get applicant: %w", err)
	}
	a := row.ToType()
	return &a, nil
}

func (m *MySQL) ListApplicants(ctx context.Context) ([]types.Applicant, error) {
	var rows []models.Applicant
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	out := make([]types.Applicant, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToType())
	}
	return out, nil
}

// ListUnratedApplicants returns applicants with no stored AI rating, oldest
// first, so bulk rating processes backlog in arrival order.
func (m *MySQL) ListUnratedApplicants(ctx context.Context) ([]types.Applicant, error) {
	var rows []models.Applicant
	if err := m.db.WithContext(ctx).Where("rating IS NULL").Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list unrated applicants: %w", err)
	}
	out := make([]types.Applicant, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToType())
	}
	return out, nil
}

func (m *MySQL) UpdateApplicant(ctx context.Context, a *types.Applicant) error {
	row, err := models.ApplicantFromType(a)
	if err != nil {
		return fmt.Errorf("encode applicant: %w", err)
	}
	res := fullUpdate(m.db.WithContext(ctx), &models.Applicant{}, a.ID, row)
	if res.Error != nil {
		return fmt.Errorf("update applicant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("applicant %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// SetApplicantRating stores the AI rating for one applicant.
func (m *MySQL) SetApplicantRating(ctx context.Context, id string, rating int) error {
	res := m.db.WithContext(ctx).Model(&models.Applicant{}).Where("id = ?", id).Update("rating", rating)
	if res.Error != nil {
		return fmt.Errorf("set applicant rating: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("applicant %s: %w", id, ErrNotFound)
	}
	return nil
}

func (m *MySQL) DeleteApplicant(ctx context.Context, id string) error {
	res := m.db.WithContext(ctx).Delete(&models.Applicant{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete applicant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("applicant %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- job orders ---

func (m *MySQL) CreateJobOrder(ctx context.Context, j *types.JobOrder) error {
	if err := m.db.WithContext(ctx).Create(models.JobOrderFromType(j)).Error; err != nil {
		return fmt.Errorf("create job order: %w", err)
	}
	return nil
}

func (m *MySQL) GetJobOrder(ctx context.Context, id string) (*types.JobOrder, error) {
	var row models.JobOrder
	err := m.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job order: %w", err)
	}
	j := row.ToType()
	return &j, nil
}

func (m *MySQL) ListJobOrders(ctx context.Context) ([]types.JobOrder, error) {
	var rows []models.JobOrder
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list job orders: %w", err)
	}
	out := make([]types.JobOrder, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToType())
	}
	return out, nil
}

func (m *MySQL) UpdateJobOrder(ctx context.Context, j *types.JobOrder) error {
	res := fullUpdate(m.db.WithContext(ctx), &models.JobOrder{}, j.ID, models.JobOrderFromType(j))
	if res.Error != nil {
		return fmt.Errorf("update job order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job order %s: %w", j.ID, ErrNotFound)
	}
	return nil
}

func (m *MySQL) DeleteJobOrder(ctx context.Context, id string) error {
	res := m.db.WithContext(ctx).Delete(&models.JobOrder{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete job order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job order %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- clients ---

func (m *MySQL) CreateClient(ctx context.Context, c *types.Client) error {
	if err := m.db.WithContext(ctx).Create(models.ClientFromType(c)).Error; err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (m *MySQL) GetClient(ctx context.Context, id string) (*types.Client, error) {
	var row models.Client
	err := m.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	c := row.ToType()
	return &c, nil
}

func (m *MySQL) ListClients(ctx context.Context) ([]types.Client, error) {
	var rows []models.Client
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]types.Client, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToType())
	}
	return out, nil
}

func (m *MySQL) UpdateClient(ctx context.Context, c *types.Client) error {
	res := fullUpdate(m.db.WithContext(ctx), &models.Client{}, c.ID, models.ClientFromType(c))
	if res.Error != nil {
		return fmt.Errorf("update client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("client %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (m *MySQL) DeleteClient(ctx context.Context, id string) error {
	res := m.db.WithContext(ctx).Delete(&models.Client{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return nil
}

// Snapshot reads all three collections for one analysis or chat call.
func (m *MySQL) Snapshot(ctx context.Context) (types.Snapshot, error) {
	applicants, err := m.ListApplicants(ctx)
	if err != nil {
		return types.Snapshot{}, err
	}
	jobs, err := m.ListJobOrders(ctx)
	if err != nil {
		return types.Snapshot{}, err
	}
	clients, err := m.ListClients(ctx)
	if err != nil {
		return types.Snapshot{}, err
	}
	return types.Snapshot{Applicants: applicants, JobOrders: jobs, Clients: clients}, nil
}
