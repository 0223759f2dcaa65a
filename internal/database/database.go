// Package database
package database

import (
	"context"
	"fmt"
	"time"

	c "github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/global"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DBCloseCallback struct {
	logger log.LoggerInterface
	db     *gorm.DB
}

func NewDBCloseCallback(logger log.LoggerInterface, db *gorm.DB) *DBCloseCallback {
	return &DBCloseCallback{logger: logger, db: db}
}

func (dc *DBCloseCallback) Invoke(_ context.Context) error {
	dc.logger.Info("Closing database connection")
	db, err := dc.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// Models lists every table owned by the application, in migration order
func Models() []any {
	return []any{
		&User{}, &Aircraft{}, &Booking{}, &AvailabilityPattern{},
		&WeatherConflict{}, &RescheduleProposal{}, &Notification{},
		&WeatherCache{}, &AuditLog{},
	}
}

func NewOperations(db *gorm.DB, queryTimeout time.Duration) *DatabaseOperations {
	return NewDatabaseOperations(
		NewUserOperation(db, queryTimeout),
		NewAircraftOperation(db, queryTimeout),
		NewBookingOperation(db, queryTimeout),
		NewAvailabilityOperation(db, queryTimeout),
		NewConflictOperation(db, queryTimeout),
		NewProposalOperation(db, queryTimeout),
		NewNotificationOperation(db, queryTimeout),
		NewWeatherCacheOperation(db, queryTimeout),
		NewAuditLogOperation(db, queryTimeout),
	)
}

func ConnectDatabase(lg log.LoggerInterface, config *c.Config, debug bool) (global.Callable, *DatabaseOperations, error) {
	connection := config.Database.GetConnection(lg)

	connectionConfig := gorm.Config{TranslateError: true}
	connectionConfig.DefaultTransactionTimeout = 5 * time.Second
	connectionConfig.PrepareStmt = true

	if debug {
		connectionConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		connectionConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(connection, &connectionConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("error occured while connecting to database: %v", err)
	}

	if err = db.Migrator().AutoMigrate(Models()...); err != nil {
		return nil, nil, fmt.Errorf("error occured while migrating database: %v", err)
	}

	dbPool, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("error occured while creating database pool: %v", err)
	}

	maxOpenConnections := config.Database.ServerMaxConnections * 4 / 5 // 不超过数据库最大连接的80%
	maxIdleConnections := max(maxOpenConnections/5, 1)                 // 空闲连接约为最大连接的20%

	if config.Database.DBType == c.SQLite {
		// sqlite serialises writers, a single connection avoids SQLITE_BUSY
		maxOpenConnections, maxIdleConnections = 1, 1
	}

	dbPool.SetMaxIdleConns(maxIdleConnections)
	dbPool.SetMaxOpenConns(max(maxOpenConnections, 1))
	dbPool.SetConnMaxLifetime(config.Database.ConnectIdleDuration)

	if err = dbPool.Ping(); err != nil {
		return nil, nil, fmt.Errorf("error occured while pinging database: %v", err)
	}
	lg.Info("Database initialized and connection established")

	return NewDBCloseCallback(lg, db), NewOperations(db, config.Database.QueryDuration), nil
}
