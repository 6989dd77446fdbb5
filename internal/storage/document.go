package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"civiclens/backend/internal/config"
	"civiclens/backend/internal/models"

	"github.com/google/uuid"
)

var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Document is the persisted form of the complaint collection.
type Document struct {
	Version    int                `json:"version" bson:"version"`
	Complaints []models.Complaint `json:"complaints" bson:"complaints"`
}

// Encode serializes the collection as a versioned JSON document.
func Encode(complaints []models.Complaint) ([]byte, error) {
	if complaints == nil {
		complaints = []models.Complaint{}
	}
	return json.Marshal(Document{Version: config.SnapshotSchemaVersion, Complaints: complaints})
}

// legacyFields are the names the browser-only build stored in localStorage.
type legacyFields struct {
	InternalID   json.Number `json:"internalId"`
	Dept         string      `json:"dept"`
	Date         *time.Time  `json:"date"`
	ResolvedDate *time.Time  `json:"resolvedDate"`
	History      []struct {
		Date *time.Time `json:"date"`
	} `json:"history"`
}

// Decode parses a snapshot. A bare JSON array is accepted as an unversioned
// snapshot, including the localStorage record shape of the browser-only build.
func Decode(data []byte) ([]models.Complaint, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []models.Complaint{}, nil
	}

	if trimmed[0] == '[' {
		return decodeArray(trimmed)
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Version > config.SnapshotSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	if doc.Complaints == nil {
		doc.Complaints = []models.Complaint{}
	}
	return doc.Complaints, nil
}

func decodeArray(data []byte) ([]models.Complaint, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	complaints := make([]models.Complaint, 0, len(raw))
	for i, item := range raw {
		var c models.Complaint
		if err := json.Unmarshal(item, &c); err != nil {
			return nil, fmt.Errorf("decode snapshot entry %d: %w", i, err)
		}
		var legacy legacyFields
		if err := json.Unmarshal(item, &legacy); err != nil {
			return nil, fmt.Errorf("decode snapshot entry %d: %w", i, err)
		}
		applyLegacy(&c, legacy)
		complaints = append(complaints, c)
	}
	return complaints, nil
}

// applyLegacy fills fields the current shape left empty from their legacy names.
func applyLegacy(c *models.Complaint, legacy legacyFields) {
	if c.ID == "" {
		if legacy.InternalID != "" {
			c.ID = "legacy-" + legacy.InternalID.String()
		} else {
			c.ID = uuid.New().String()
		}
	}
	if c.Department == "" {
		c.Department = legacy.Dept
	}
	if c.CreatedAt.IsZero() && legacy.Date != nil {
		c.CreatedAt = legacy.Date.UTC()
	}
	if c.ResolvedAt == nil && legacy.ResolvedDate != nil {
		resolved := legacy.ResolvedDate.UTC()
		c.ResolvedAt = &resolved
	}
	for i := range c.History {
		if c.History[i].Timestamp.IsZero() && i < len(legacy.History) && legacy.History[i].Date != nil {
			c.History[i].Timestamp = legacy.History[i].Date.UTC()
		}
	}
	if c.History == nil {
		c.History = []models.HistoryEntry{}
	}
}
