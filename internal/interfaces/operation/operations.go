// Package operation
package operation

type DatabaseOperations struct {
	userOperation         UserOperationInterface
	aircraftOperation     AircraftOperationInterface
	bookingOperation      BookingOperationInterface
	availabilityOperation AvailabilityOperationInterface
	conflictOperation     ConflictOperationInterface
	proposalOperation     ProposalOperationInterface
	notificationOperation NotificationOperationInterface
	weatherCacheOperation WeatherCacheOperationInterface
	auditLogOperation     AuditLogOperationInterface
}

func NewDatabaseOperations(
	userOperation UserOperationInterface,
	aircraftOperation AircraftOperationInterface,
	bookingOperation BookingOperationInterface,
	availabilityOperation AvailabilityOperationInterface,
	conflictOperation ConflictOperationInterface,
	proposalOperation ProposalOperationInterface,
	notificationOperation NotificationOperationInterface,
	weatherCacheOperation WeatherCacheOperationInterface,
	auditLogOperation AuditLogOperationInterface,
) *DatabaseOperations {
	return &DatabaseOperations{
		userOperation:         userOperation,
		aircraftOperation:     aircraftOperation,
		bookingOperation:      bookingOperation,
		availabilityOperation: availabilityOperation,
		conflictOperation:     conflictOperation,
		proposalOperation:     proposalOperation,
		notificationOperation: notificationOperation,
		weatherCacheOperation: weatherCacheOperation,
		auditLogOperation:     auditLogOperation,
	}
}

func (db *DatabaseOperations) UserOperation() UserOperationInterface {
	return db.userOperation
}

func (db *DatabaseOperations) AircraftOperation() AircraftOperationInterface {
	return db.aircraftOperation
}

func (db *DatabaseOperations) BookingOperation() BookingOperationInterface {
	return db.bookingOperation
}

func (db *DatabaseOperations) AvailabilityOperation() AvailabilityOperationInterface {
	return db.availabilityOperation
}

func (db *DatabaseOperations) ConflictOperation() ConflictOperationInterface {
	return db.conflictOperation
}

func (db *DatabaseOperations) ProposalOperation() ProposalOperationInterface {
	return db.proposalOperation
}

func (db *DatabaseOperations) NotificationOperation() NotificationOperationInterface {
	return db.notificationOperation
}

func (db *DatabaseOperations) WeatherCacheOperation() WeatherCacheOperationInterface {
	return db.weatherCacheOperation
}

func (db *DatabaseOperations) AuditLogOperation() AuditLogOperationInterface {
	return db.auditLogOperation
}
