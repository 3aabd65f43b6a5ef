package core

import (
	"fmt"
)

type ErrorNotFound struct {
}

func (e ErrorNotFound) Error() string {
	return "Not Found"
}

func NewErrorNotFound() ErrorNotFound {
	return ErrorNotFound{}
}

type ErrorValidation struct {
	Field string
}

func (e ErrorValidation) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func NewErrorValidation(field string) ErrorValidation {
	return ErrorValidation{Field: field}
}

type ErrorHashing struct {
	cause error
}

func (e ErrorHashing) Error() string {
	if e.cause == nil {
		return "Hashing Failed"
	}
	return "Hashing Failed: " + e.cause.Error()
}

func (e ErrorHashing) Unwrap() error {
	return e.cause
}

func NewErrorHashing(cause error) ErrorHashing {
	return ErrorHashing{cause: cause}
}

type ErrorStorage struct {
	Op    string
	cause error
}

func (e ErrorStorage) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("Storage Failed (%s)", e.Op)
	}
	return fmt.Sprintf("Storage Failed (%s): %s", e.Op, e.cause.Error())
}

func (e ErrorStorage) Unwrap() error {
	return e.cause
}

func NewErrorStorage(op string, cause error) ErrorStorage {
	return ErrorStorage{Op: op, cause: cause}
}

type ErrorStartup struct {
	Step  string
	cause error
}

func (e ErrorStartup) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("Startup Failed (%s)", e.Step)
	}
	return fmt.Sprintf("Startup Failed (%s): %s", e.Step, e.cause.Error())
}

func (e ErrorStartup) Unwrap() error {
	return e.cause
}

func NewErrorStartup(step string, cause error) ErrorStartup {
	return ErrorStartup{Step: step, cause: cause}
}
