package database

import (
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// postgresIndexes are the indexes gorm tags cannot express.
var postgresIndexes = []string{
	// notification alert lookups filter on the embedded read flag
	"CREATE INDEX IF NOT EXISTS idx_users_notifications_gin ON users USING GIN (notifications jsonb_path_ops);",
	"CREATE INDEX IF NOT EXISTS idx_users_preferred_category_gin ON users USING GIN (preferred_category);",
	"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC) WHERE deleted_at IS NULL;",
}

// EnsurePostgresIndexes creates the extra indexes. Failures are logged and
// skipped.
func EnsurePostgresIndexes(db *gorm.DB) error {
	for _, indexSQL := range postgresIndexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			logger.GetLogger().Warn("Failed to create index",
				zap.String("sql", indexSQL),
				zap.Error(err),
			)
		}
	}
	return nil
}
