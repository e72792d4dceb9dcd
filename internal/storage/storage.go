package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sulabh/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateID is returned by CreateComplaint when the id is already taken.
var ErrDuplicateID = errors.New("complaint id already exists")

// Storage is the backing store for complaints.
// Lookups of unknown ids return nil without an error.
type Storage interface {
	CreateComplaint(ctx context.Context, complaint *models.Complaint) error
	UpdateComplaint(ctx context.Context, complaint *models.Complaint) error
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	ListComplaintsByUser(ctx context.Context, userID string) ([]models.Complaint, error)
	ListComplaints(ctx context.Context) ([]models.Complaint, error)
}

// Service is the GORM implementation of Storage.
type Service struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		DB:     db,
		Logger: logger,
	}
}

// AutoMigrate creates or updates the complaint tables.
func (s *Service) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.Complaint{},
		&models.ComplaintUpdate{},
		&models.ComplaintFeedback{},
	)
}

func withTimeline(db *gorm.DB) *gorm.DB {
	return db.Preload("Feedback").Preload("Updates", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position asc")
	})
}

// CreateComplaint inserts a complaint together with its first timeline entries.
func (s *Service) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	err := s.DB.WithContext(ctx).Create(complaint).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("complaint %s: %w", complaint.ID, ErrDuplicateID)
	}
	if err != nil {
		s.Logger.Error("failed to create complaint", "complaint_id", complaint.ID, "error", err)
		return err
	}
	return nil
}

// UpdateComplaint persists the merged record: the complaint row, new timeline
// entries and feedback, in one transaction.
func (s *Service) UpdateComplaint(ctx context.Context, complaint *models.Complaint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Complaint{}).
			Where("id = ?", complaint.ID).
			Select("*").
			Omit(clause.Associations).
			Updates(complaint)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		for i := range complaint.Updates {
			// timeline entries are immutable; existing rows are left alone
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&complaint.Updates[i]).Error; err != nil {
				return err
			}
		}

		if complaint.Feedback != nil {
			complaint.Feedback.ComplaintID = complaint.ID
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(complaint.Feedback).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.Logger.Error("failed to update complaint", "complaint_id", complaint.ID, "error", err)
		return err
	}
	return nil
}

// GetComplaint returns the complaint with its timeline, or nil if it does not exist.
func (s *Service) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := withTimeline(s.DB.WithContext(ctx)).Where("id = ?", id).First(&complaint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.Logger.Error("failed to get complaint", "complaint_id", id, "error", err)
		return nil, err
	}
	return &complaint, nil
}

// ListComplaintsByUser returns a user's complaints in submission order.
func (s *Service) ListComplaintsByUser(ctx context.Context, userID string) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := withTimeline(s.DB.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("submitted_at asc").
		Find(&complaints).Error
	if err != nil {
		s.Logger.Error("failed to list complaints for user", "user_id", userID, "error", err)
		return nil, err
	}
	return complaints, nil
}

// ListComplaints returns every complaint in submission order.
func (s *Service) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	var complaints []models.Complaint
	if err := withTimeline(s.DB.WithContext(ctx)).Order("submitted_at asc").Find(&complaints).Error; err != nil {
		s.Logger.Error("failed to list complaints", "error", err)
		return nil, err
	}
	return complaints, nil
}
