package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"discord-modbot/models"

	"go.uber.org/zap"
)

// PolicyDB stores channel topic policies in SQLite.
type PolicyDB struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPolicyDB wraps an initialized database connection.
func NewPolicyDB(db *sql.DB, logger *zap.Logger) *PolicyDB {
	return &PolicyDB{db: db, logger: logger}
}

// Upsert inserts or replaces the policy of a channel.
func (p *PolicyDB) Upsert(ctx context.Context, channelID string, topic models.TopicLabel) error {
	query := `INSERT OR REPLACE INTO channel_topics (channel_id, topic, updated_at) VALUES (?, ?, ?)`
	stmt, err := p.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for saving policy: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, channelID, string(topic), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save policy for channel %s: %w", channelID, err)
	}
	return nil
}

// Delete removes the policy of a channel. Deleting a missing policy is not an error.
func (p *PolicyDB) Delete(ctx context.Context, channelID string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM channel_topics WHERE channel_id = ?`, channelID); err != nil {
		return fmt.Errorf("failed to delete policy for channel %s: %w", channelID, err)
	}
	return nil
}

// LoadAll returns every stored policy keyed by channel ID. Rows whose topic is
// no longer a known label are skipped.
func (p *PolicyDB) LoadAll(ctx context.Context) (map[string]models.TopicLabel, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT channel_id, topic FROM channel_topics`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel policies: %w", err)
	}
	defer rows.Close()

	policies := make(map[string]models.TopicLabel)
	for rows.Next() {
		var channelID, topic string
		if err := rows.Scan(&channelID, &topic); err != nil {
			return nil, fmt.Errorf("failed to scan channel policy: %w", err)
		}
		label, err := models.ParseTopic(topic)
		if err != nil {
			p.logger.Warn("skipping stored policy with unknown topic",
				zap.String("channel_id", channelID),
				zap.String("topic", topic))
			continue
		}
		policies[channelID] = label
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read channel policies: %w", err)
	}
	return policies, nil
}
