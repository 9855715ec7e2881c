package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/radcool22/meditrack/models"
)

// ReportFilter carries the optional list predicates. Sort input is
// whitelisted; unknown columns or directions fall back to the defaults.
type ReportFilter struct {
	Search   string
	Category string
	SortBy   string
	Order    string
}

var sortColumns = map[string]string{
	"title":       "title",
	"category":    "category",
	"report_date": "report_date",
	"created_at":  "created_at",
}

// ReportRepository handles report metadata operations. Every read and
// delete is scoped to the owning user id.
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a new report row.
func (r *ReportRepository) Create(report *models.Report) error {
	return r.db.Create(report).Error
}

// FindByID retrieves a report by id, only if owned by userID.
func (r *ReportRepository) FindByID(id, userID uint) (*models.Report, error) {
	var report models.Report
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// FindByUser lists the user's reports, filtered and sorted per filter.
func (r *ReportRepository) FindByUser(userID uint, filter ReportFilter) ([]models.Report, error) {
	q := r.db.Where("user_id = ?", userID)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("title LIKE ? OR source LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.Order == "ASC" || filter.Order == "asc" {
		direction = "ASC"
	}

	reports := []models.Report{}
	err := q.Order(column + " " + direction).Find(&reports).Error
	return reports, err
}

// Categories returns the user's distinct non-null categories, sorted.
func (r *ReportRepository) Categories(userID uint) ([]string, error) {
	categories := []string{}
	err := r.db.Model(&models.Report{}).
		Where("user_id = ? AND category IS NOT NULL", userID).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}

// Delete removes the report row, only if owned by userID. Returns
// ErrNotFound when nothing matched.
func (r *ReportRepository) Delete(id, userID uint) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Report{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
