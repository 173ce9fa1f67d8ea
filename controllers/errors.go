package controllers

// ErrNoPermission is returned when the caller's role or ownership does not
// allow the operation.
var ErrNoPermission = &CustomError{"You do not have permission"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}
