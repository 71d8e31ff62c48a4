package codes

import "fmt"

const (
	// 2xxx: generic http responses
	RES_SERVER_ERROR  = 2001
	RES_UNKNOWN_ROUTE = 2002
	RES_INVALID_JSON  = 2003
	RES_INVALID_DATA  = 2004

	// 101xxx: validation
	VAL_REQUIRED    = 101_001
	VAL_STRING_LEN  = 101_002
	VAL_STRING_TYPE = 101_003
	VAL_ARRAY_TYPE  = 101_004
	VAL_ARRAY_LEN   = 101_005

	// 102xxx: portal responses
	RES_UNAUTHORIZED        = 102_001
	RES_FORBIDDEN           = 102_002
	RES_COMMITTEE_NOT_FOUND = 102_003
	RES_ADMIN_REQUIRED      = 102_004

	// 103xxx: startup errors
	ERR_READ_CONFIG          = 103_001
	ERR_PARSE_CONFIG         = 103_002
	ERR_INVALID_STORAGE_TYPE = 103_003
	ERR_ENV_CONFIG           = 103_004
	ERR_AUTH_CONFIG          = 103_005
	ERR_LOG_CONFIG           = 103_006
)

// An error with a stable numeric code, used for failures which
// an operator (not an API client) has to deal with.
type Error struct {
	Code  int
	Inner error
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %d - %s", e.Code, e.Inner.Error())
}

func (e *Error) Unwrap() error {
	return e.Inner
}

func Err(code int, err error) error {
	return &Error{Code: code, Inner: err}
}

func Errf(code int, format string, args ...any) error {
	return &Error{Code: code, Inner: fmt.Errorf(format, args...)}
}
