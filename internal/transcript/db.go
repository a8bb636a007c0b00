// Package transcript keeps an optional write-only audit journal of every
// message appended to a conversation log. The journal is never read back
// into a live conversation.
package transcript

import (
	"fmt"
	"net"
	"strconv"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/priyanshu2307/Newschat/internal/config"
	"github.com/priyanshu2307/Newschat/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the journal database.
func DSN(cfg config.MySQLConfig) string {
	dc := mysqldrv.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dc.DBName = cfg.Database
	dc.ParseTime = true
	return dc.FormatDSN()
}

// Open connects to the journal database named by cfg and migrates it.
func Open(cfg config.TranscriptConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	var where string
	switch cfg.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Path)
		where = cfg.Path
	case "mysql":
		dialector = mysql.Open(DSN(cfg.MySQL))
		where = fmt.Sprintf("%s:%d/%s", cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.Database)
	default:
		return nil, fmt.Errorf("transcript: unknown driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("transcript: connect to %s: %w", where, err)
	}
	if cfg.Driver != "mysql" {
		// One connection keeps ":memory:" databases intact and serialises
		// sqlite writers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("transcript: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the journal tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.TranscriptSession{}, &models.TranscriptEntry{}); err != nil {
		return fmt.Errorf("transcript: auto-migrate: %w", err)
	}
	return nil
}
