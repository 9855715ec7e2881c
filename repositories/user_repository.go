package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/radcool22/meditrack/models"
)

// ErrNotFound is returned when a requested record does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("record not found")

// UserRepository handles user data operations.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByPhone retrieves a user by normalized phone number.
func (r *UserRepository) FindByPhone(phone string) (*models.User, error) {
	var user models.User
	err := r.db.Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID retrieves a user by id.
func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreate returns the user for the given normalized phone number,
// creating a verified record if none exists. The insert ignores unique
// conflicts and re-selects, so concurrent first-time logins for the same
// number resolve to a single row.
func (r *UserRepository) FindOrCreate(phone string) (*models.User, error) {
	user := models.User{Phone: phone, Verified: true}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return nil, err
	}
	return r.FindByPhone(phone)
}
