// Package migration bootstraps the schema on startup so the tool is
// usable out of the box against an empty sqlite file or database.
package migration

import (
	usagedomain "github.com/bundlewatch/bundlewatch/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run creates or extends the two append-only tables.
func Run(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&usagedomain.UsageRecord{},
		&usagedomain.APICallLog{},
	)
}
