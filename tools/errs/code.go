package errs

import "net/http"

const (
	ServerInternalError = 500
	ArgsError           = 1001
	TokenMissingError   = 1002
	SessionUnknownError = 1003
	BotDetectedError    = 1004
	SlowConsumerError   = 1005
)

var (
	ErrInternal       = NewCodeError(ServerInternalError, "ServerInternalError")
	ErrBadPayload     = NewCodeError(ArgsError, "ArgsError")
	ErrTokenMissing   = NewCodeError(TokenMissingError, "Token is missing")
	ErrSessionUnknown = NewCodeError(SessionUnknownError, "SessionUnknown")
	ErrBotDetected    = NewCodeError(BotDetectedError, "BotDetected")
	ErrSlowConsumer   = NewCodeError(SlowConsumerError, "SlowConsumer")
)

var httpStatus = map[int]int{
	ServerInternalError: http.StatusInternalServerError,
	ArgsError:           http.StatusBadRequest,
	TokenMissingError:   http.StatusBadRequest,
	SessionUnknownError: http.StatusUnauthorized,
	BotDetectedError:    http.StatusConflict,
}

// HTTPStatus maps err to the status the gateway answers with. Uncoded
// errors are internal.
func HTTPStatus(err error) int {
	if ce, ok := AsCode(err); ok {
		if st, ok := httpStatus[ce.Code]; ok {
			return st
		}
	}
	return http.StatusInternalServerError
}
