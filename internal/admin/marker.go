package admin

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const markerRowID = 1

// SessionMarker is the durable record of an established admin session. A
// single row survives process restarts; expired markers are ignored on
// restore.
type SessionMarker struct {
	ID            uint      `gorm:"column:id;primaryKey"`
	LoggedIn      bool      `gorm:"column:logged_in;not null;default:false"`
	EstablishedAt time.Time `gorm:"column:established_at"`
	ExpiresAt     time.Time `gorm:"column:expires_at"`
}

// TableName provides the explicit table binding for GORM.
func (SessionMarker) TableName() string {
	return "admin_session_markers"
}

// MarkerStore persists the session marker in the local sqlite database.
type MarkerStore struct {
	db *gorm.DB
}

// NewMarkerStore constructs a marker store over an open database handle.
func NewMarkerStore(db *gorm.DB) (*MarkerStore, error) {
	if db == nil {
		return nil, errors.New("admin: database handle is required")
	}
	return &MarkerStore{db: db}, nil
}

// Save upserts the marker row.
func (s *MarkerStore) Save(marker SessionMarker) error {
	marker.ID = markerRowID
	return s.db.Save(&marker).Error
}

// Load reads the marker row. The second return is false when none exists.
func (s *MarkerStore) Load() (SessionMarker, bool, error) {
	var marker SessionMarker
	err := s.db.First(&marker, markerRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SessionMarker{}, false, nil
	}
	if err != nil {
		return SessionMarker{}, false, err
	}
	return marker, true, nil
}

// Clear removes the marker row.
func (s *MarkerStore) Clear() error {
	return s.db.Delete(&SessionMarker{}, markerRowID).Error
}
