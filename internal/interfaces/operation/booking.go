// Package operation
package operation

import (
	"errors"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
)

var (
	// ErrBookingNotFound 预约不存在
	ErrBookingNotFound = errors.New("booking does not exist")
	// ErrInvalidTransition 预约或冲突当前状态不允许此次变更
	ErrInvalidTransition = errors.New("invalid status transition")
)

// BookingOperationInterface 训练预约操作接口定义
type BookingOperationInterface interface {
	// GetBookingById 通过主键ID获取预约, 同时加载学员、教员与飞机, 当err为nil时返回值booking有效
	GetBookingById(id uint) (booking *Booking, err error)
	// GetUpcomingBookings 获取开始时间位于[from, to]之间且状态为scheduled的预约
	GetUpcomingBookings(from, to time.Time) (bookings []*Booking, err error)
	// GetActiveBookingsOverlapping 获取与[from, to)有交集且占用该教员或该飞机的有效预约, excludeId对应的预约不计入
	GetActiveBookingsOverlapping(instructorId, aircraftId uint, from, to time.Time, excludeId uint) (bookings []*Booking, err error)
	// UpdateWeatherSnapshot 写入最近一次天气检查结果, 当err为nil时表示更新成功
	UpdateWeatherSnapshot(booking *Booking, snapshot []weather.CheckpointObservation, checkedAt time.Time) (err error)
	// TransitBookingStatus 仅当预约状态为from时更新为to, 否则返回 ErrInvalidTransition
	TransitBookingStatus(booking *Booking, from, to string) (err error)
	// SaveBooking 保存预约数据, 当err为nil时表示保存成功
	SaveBooking(booking *Booking) (err error)
}

// AvailabilityOperationInterface 教员空闲时段操作接口定义
type AvailabilityOperationInterface interface {
	// GetInstructorPatterns 获取教员全部空闲时段
	GetInstructorPatterns(instructorId uint) (patterns []*AvailabilityPattern, err error)
	// SavePattern 保存空闲时段, 当err为nil时表示保存成功
	SavePattern(pattern *AvailabilityPattern) (err error)
}
