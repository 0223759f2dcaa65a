// Package operation
package operation

import "errors"

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user does not exist")
	// ErrAircraftNotFound 飞机不存在
	ErrAircraftNotFound = errors.New("aircraft does not exist")
)

// UserOperationInterface 用户操作接口定义
type UserOperationInterface interface {
	// GetUserById 通过主键ID获取用户, 当err为nil时返回值user有效
	GetUserById(uid uint) (user *User, err error)
	// GetUsersByIds 批量获取用户, 不存在的ID会被忽略
	GetUsersByIds(uids []uint) (users []*User, err error)
	// SaveUser 保存用户数据, 当err为nil时表示保存成功
	SaveUser(user *User) (err error)
}

// AircraftOperationInterface 飞机操作接口定义
type AircraftOperationInterface interface {
	// GetAircraftById 通过主键ID获取飞机, 当err为nil时返回值aircraft有效
	GetAircraftById(id uint) (aircraft *Aircraft, err error)
	// SaveAircraft 保存飞机数据, 当err为nil时表示保存成功
	SaveAircraft(aircraft *Aircraft) (err error)
}
