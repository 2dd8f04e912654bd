// Package accessdb reads the third-party access-control database. It never writes to it.
package accessdb

import (
	"context"
	"time"

	"studyroom-backend/config"
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/studyday"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrExternalSystemUnavailable wraps every I/O failure against the access-control store.
var ErrExternalSystemUnavailable = errors.New("external access system unavailable")

// Source is one scoped connection to the access-control store.
type Source interface {
	ListGates(ctx context.Context) ([]model.Gate, error)
	// ListAccessRecordsAfter returns records strictly after the YYYYMMDDHHmmss watermark,
	// ordered by (e_date, e_time). A nil watermark reads only the recent first-run window.
	ListAccessRecordsAfter(ctx context.Context, watermark *string) ([]model.ExternalAccessRecord, error)
	Close() error
}

// Connector hands out a fresh Source per batch.
type Connector interface {
	Connect() Source
}

type MySQLConnector struct {
	cfg   config.AccessConfig
	clock *studyday.Clock
	now   func() time.Time
}

func NewMySQLConnector(cfg config.AccessConfig, clock *studyday.Clock) *MySQLConnector {
	return &MySQLConnector{cfg: cfg, clock: clock, now: time.Now}
}

// Connect returns a lazily opened connection; nothing is dialed until the first query.
func (c *MySQLConnector) Connect() Source {
	return &Conn{cfg: c.cfg, clock: c.clock, now: c.now}
}

// Conn is an explicitly owned connection handle. Close it after the batch.
type Conn struct {
	cfg   config.AccessConfig
	clock *studyday.Clock
	now   func() time.Time
	db    *gorm.DB
}

func (c *Conn) open(ctx context.Context) (*gorm.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	if c.cfg.DSN == "" {
		return nil, errors.Wrap(ErrExternalSystemUnavailable, "ACCESS_DB_DSN is not configured")
	}

	dsn, err := mysqldriver.ParseDSN(c.cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(ErrExternalSystemUnavailable, "parse dsn: %v", err)
	}
	dsn.Timeout = c.cfg.ConnectTimeout
	dsn.ReadTimeout = c.cfg.QueryTimeout

	db, err := gorm.Open(mysql.Open(dsn.FormatDSN()), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrExternalSystemUnavailable, "open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrapf(ErrExternalSystemUnavailable, "handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, errors.Wrapf(ErrExternalSystemUnavailable, "ping: %v", err)
	}

	c.db = db
	return db, nil
}

func (c *Conn) ListGates(ctx context.Context) ([]model.Gate, error) {
	db, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	var gates []model.Gate
	if err := db.WithContext(ctx).Table(c.cfg.GateTable).Select("id, name, ip").Find(&gates).Error; err != nil {
		return nil, errors.Wrapf(ErrExternalSystemUnavailable, "list gates: %v", err)
	}
	return gates, nil
}

func (c *Conn) ListAccessRecordsAfter(ctx context.Context, watermark *string) ([]model.ExternalAccessRecord, error) {
	from, inclusive := c.lowerBound(watermark)
	db, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	dateStamp, timeStamp := from[:8], from[8:]
	op := ">"
	if inclusive {
		op = ">="
	}

	var records []model.ExternalAccessRecord
	err = db.WithContext(ctx).Table(c.cfg.EventTable).
		Select("e_date, e_time, g_id, e_id, e_idno, e_name").
		Where("e_date > ? OR (e_date = ? AND e_time "+op+" ?)", dateStamp, dateStamp, timeStamp).
		Order("e_date asc").Order("e_time asc").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(ErrExternalSystemUnavailable, "list access records: %v", err)
	}
	return records, nil
}

// lowerBound returns the stamp to read from. The first run starts FirstRunWindow ago, inclusive.
func (c *Conn) lowerBound(watermark *string) (string, bool) {
	if watermark != nil && len(*watermark) == 14 {
		return *watermark, false
	}
	d, t := c.clock.Stamp(c.now().Add(-c.cfg.FirstRunWindow))
	return d + t, true
}

func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	c.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
