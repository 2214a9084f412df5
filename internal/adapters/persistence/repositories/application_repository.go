package repositories

import (
	"context"
	"errors"

	"e-nagarpalika-portal/internal/adapters/persistence/models"
	"e-nagarpalika-portal/internal/core/workflow"

	"gorm.io/gorm"
)

// applicationRepository implements ApplicationRepository on GORM
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new GORM application repository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create inserts a new application
func (r *applicationRepository) Create(ctx context.Context, app *workflow.Application) error {
	if err := r.db.WithContext(ctx).Create(models.NewApplicationRow(app)).Error; err != nil {
		return workflow.Wrap(workflow.ErrStore, err)
	}
	return nil
}

// FindByID gets an application by ID
func (r *applicationRepository) FindByID(ctx context.Context, id string) (*workflow.Application, error) {
	var row models.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, storeError(err)
	}
	return row.ToDomain(), nil
}

// FindByTicketOrEmail gets the newest application matching a ticket number or email
func (r *applicationRepository) FindByTicketOrEmail(ctx context.Context, query string) (*workflow.Application, error) {
	var row models.Application
	err := r.db.WithContext(ctx).
		Where("ticket_no = ? OR email = ?", query, query).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, storeError(err)
	}
	return row.ToDomain(), nil
}

// FindMany lists applications matching filter with pagination
func (r *applicationRepository) FindMany(ctx context.Context, filter workflow.Filter, offset, limit int) ([]*workflow.Application, int64, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	q := r.db.WithContext(ctx).
		Scopes(filterScope(filter)).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}

	var rows []*models.Application
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, workflow.Wrap(workflow.ErrStore, err)
	}

	apps := make([]*workflow.Application, len(rows))
	for i, row := range rows {
		apps[i] = row.ToDomain()
	}
	return apps, total, nil
}

// Count counts applications matching filter
func (r *applicationRepository) Count(ctx context.Context, filter workflow.Filter) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Scopes(filterScope(filter)).
		Count(&total).Error
	if err != nil {
		return 0, workflow.Wrap(workflow.ErrStore, err)
	}
	return total, nil
}

// ConditionalUpdate applies a transition with optimistic version check
func (r *applicationRepository) ConditionalUpdate(ctx context.Context, app *workflow.Application, expectedVersion int64) error {
	row := models.NewApplicationRow(app)
	row.Version = expectedVersion + 1

	res := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND version = ?", app.ID, expectedVersion).
		Updates(row.TransitionColumns())
	if res.Error != nil {
		return workflow.Wrap(workflow.ErrStore, res.Error)
	}

	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", app.ID).Count(&exists).Error; err != nil {
			return workflow.Wrap(workflow.ErrStore, err)
		}
		if exists == 0 {
			return workflow.ErrNotFound
		}
		return workflow.ErrConcurrentModification
	}

	app.Version = row.Version
	return nil
}

// filterScope translates a planner filter into WHERE clauses
func filterScope(f workflow.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.FiledBy != "" {
			db = db.Where("user_id = ?", f.FiledBy)
		}
		if len(f.Clauses) == 0 {
			return db
		}

		fresh := db.Session(&gorm.Session{NewDB: true})
		var group *gorm.DB
		for _, c := range f.Clauses {
			cond := clauseQuery(fresh, c)
			if group == nil {
				group = fresh.Where(cond)
			} else {
				group = group.Or(cond)
			}
		}
		return db.Where(group)
	}
}

func clauseQuery(db *gorm.DB, c workflow.Clause) *gorm.DB {
	q := db.Where("1 = 1")
	if len(c.Statuses) > 0 {
		statuses := make([]string, len(c.Statuses))
		for i, s := range c.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if len(c.Levels) > 0 {
		levels := make([]string, len(c.Levels))
		for i, l := range c.Levels {
			levels[i] = string(l)
		}
		q = q.Where("current_level IN ?", levels)
	}
	if c.ExcludeLevel != "" {
		q = q.Where("current_level <> ?", string(c.ExcludeLevel))
	}
	return q
}

func storeError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.ErrNotFound
	}
	return workflow.Wrap(workflow.ErrStore, err)
}
