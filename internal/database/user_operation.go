// Package database
package database

import (
	"context"
	"errors"
	"time"

	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"gorm.io/gorm"
)

type UserOperation struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewUserOperation(db *gorm.DB, queryTimeout time.Duration) *UserOperation {
	return &UserOperation{db: db, queryTimeout: queryTimeout}
}

func (userOperation *UserOperation) GetUserById(uid uint) (user *User, err error) {
	user = &User{}
	ctx, cancel := context.WithTimeout(context.Background(), userOperation.queryTimeout)
	defer cancel()
	err = userOperation.db.WithContext(ctx).
		Where("id = ?", uid).
		First(user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrUserNotFound
	}
	return
}

func (userOperation *UserOperation) GetUsersByIds(uids []uint) (users []*User, err error) {
	users = make([]*User, 0, len(uids))
	if len(uids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), userOperation.queryTimeout)
	defer cancel()
	err = userOperation.db.WithContext(ctx).
		Where("id IN ?", uids).
		Order("id").
		Find(&users).Error
	return
}

func (userOperation *UserOperation) SaveUser(user *User) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), userOperation.queryTimeout)
	defer cancel()
	return userOperation.db.WithContext(ctx).Save(user).Error
}

type AircraftOperation struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewAircraftOperation(db *gorm.DB, queryTimeout time.Duration) *AircraftOperation {
	return &AircraftOperation{db: db, queryTimeout: queryTimeout}
}

func (aircraftOperation *AircraftOperation) GetAircraftById(id uint) (aircraft *Aircraft, err error) {
	aircraft = &Aircraft{}
	ctx, cancel := context.WithTimeout(context.Background(), aircraftOperation.queryTimeout)
	defer cancel()
	err = aircraftOperation.db.WithContext(ctx).
		Where("id = ?", id).
		First(aircraft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrAircraftNotFound
	}
	return
}

func (aircraftOperation *AircraftOperation) SaveAircraft(aircraft *Aircraft) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), aircraftOperation.queryTimeout)
	defer cancel()
	return aircraftOperation.db.WithContext(ctx).Save(aircraft).Error
}
