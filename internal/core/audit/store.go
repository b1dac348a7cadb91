// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package audit

import "context"

// # Audit Data Access

// Recorder defines the append side of the audit trail. The resolver calls
// these inside its own transactions so that entity writes and their logs
// commit or roll back together.
type Recorder interface {

	/*
		RecordUpdate appends a field-level mutation record.
	*/
	RecordUpdate(context context.Context, log *DataUpdateLog) error

	/*
		RecordResolution appends a self-healing decision record.
	*/
	RecordResolution(context context.Context, log *AutoResolutionLog) error

	/*
		RecordConflict appends an OPEN conflict flag.
	*/
	RecordConflict(context context.Context, flag *ConflictFlag) error

	/*
		RecordSystem appends an operational event.
	*/
	RecordSystem(context context.Context, log *SystemLog) error
}

// Repository extends [Recorder] with the read and triage operations used by
// the internal job API.
type Repository interface {
	Recorder

	/*
		ListConflicts returns conflict flags filtered by status (empty means
		all), newest first.
	*/
	ListConflicts(context context.Context, status FlagStatus, limit, offset int) ([]*ConflictFlag, int, error)

	/*
		CloseConflict moves an OPEN flag to RESOLVED or DISMISSED and stamps
		resolved_at. Closing a non-OPEN flag is a conflict error.
	*/
	CloseConflict(context context.Context, id string, status FlagStatus) error

	/*
		ListResolutions returns recent self-healing decisions, newest first.
	*/
	ListResolutions(context context.Context, limit, offset int) ([]*AutoResolutionLog, int, error)

	/*
		ListSystemLogs returns recent operational events filtered by
		category and level (empty means all), newest first.
	*/
	ListSystemLogs(context context.Context, category, level string, limit, offset int) ([]*SystemLog, int, error)
}
