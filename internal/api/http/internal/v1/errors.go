package v1

// Errors
const (
	UnknownErrorCode    = 0
	UnknownErrorMessage = "unknown error"

	APIKeyMissingCode           = 1001
	APIKeyMissingMessage        = "api key header missing"
	APIKeyInvalidCode           = 1002
	APIKeyInvalidMessage        = "invalid api key"
	RateLimitExceededCode       = 1003
	RateLimitExceededMessage    = "rate limit exceeded"
	StoreUnavailableCode        = 1004
	StoreUnavailableMessage     = "backing store unavailable"
	VerificationNotFoundCode    = 2001
	VerificationNotFoundMessage = "verification not found"
	UnsupportedMethodCode       = 2002
	UnsupportedMethodMessage    = "unsupported verification method"
	VerificationExpiredCode     = 2003
	VerificationExpiredMessage  = "verification expired"
	ResultNotFoundCode          = 3001
	ResultNotFoundMessage       = "result not found"
	BatchTooLargeCode           = 3002
	BatchTooLargeMessage        = "too many addresses in batch"
	SubscriptionNotFoundCode    = 4001
	SubscriptionNotFoundMessage = "webhook subscription not found"
	SubscriptionForbiddenCode   = 4002
	SubscriptionForbiddenMsg    = "webhook subscription belongs to another api key"
	UnknownEventTypeCode        = 4003
	UnknownEventTypeMessage     = "unknown webhook event type"
)

type ErrorCode int
type ErrorMessage string

type ErrorStruct struct {
	ErrorCode    `json:"error_code"`
	ErrorMessage `json:"error_message"`
} // @name ErrorStruct

type ValidationErrorStruct struct {
	ErrorCode    int               `json:"error_code"`
	ErrorMessage string            `json:"error_message"`
	Errors       []ValidationError `json:"validation_errors"`
}

type ValidationError struct {
	FieldKey     string `json:"field_key"`
	ErrorMessage string `json:"error_message"`
}

func getErrorStruct(code ErrorCode) *ErrorStruct {
	errorStruct := &ErrorStruct{
		ErrorCode:    UnknownErrorCode,
		ErrorMessage: UnknownErrorMessage,
	}

	switch code {
	case APIKeyMissingCode:
		errorStruct.ErrorCode = APIKeyMissingCode
		errorStruct.ErrorMessage = APIKeyMissingMessage
	case APIKeyInvalidCode:
		errorStruct.ErrorCode = APIKeyInvalidCode
		errorStruct.ErrorMessage = APIKeyInvalidMessage
	case RateLimitExceededCode:
		errorStruct.ErrorCode = RateLimitExceededCode
		errorStruct.ErrorMessage = RateLimitExceededMessage
	case StoreUnavailableCode:
		errorStruct.ErrorCode = StoreUnavailableCode
		errorStruct.ErrorMessage = StoreUnavailableMessage
	case VerificationNotFoundCode:
		errorStruct.ErrorCode = VerificationNotFoundCode
		errorStruct.ErrorMessage = VerificationNotFoundMessage
	case UnsupportedMethodCode:
		errorStruct.ErrorCode = UnsupportedMethodCode
		errorStruct.ErrorMessage = UnsupportedMethodMessage
	case VerificationExpiredCode:
		errorStruct.ErrorCode = VerificationExpiredCode
		errorStruct.ErrorMessage = VerificationExpiredMessage
	case ResultNotFoundCode:
		errorStruct.ErrorCode = ResultNotFoundCode
		errorStruct.ErrorMessage = ResultNotFoundMessage
	case BatchTooLargeCode:
		errorStruct.ErrorCode = BatchTooLargeCode
		errorStruct.ErrorMessage = BatchTooLargeMessage
	case SubscriptionNotFoundCode:
		errorStruct.ErrorCode = SubscriptionNotFoundCode
		errorStruct.ErrorMessage = SubscriptionNotFoundMessage
	case SubscriptionForbiddenCode:
		errorStruct.ErrorCode = SubscriptionForbiddenCode
		errorStruct.ErrorMessage = SubscriptionForbiddenMsg
	case UnknownEventTypeCode:
		errorStruct.ErrorCode = UnknownEventTypeCode
		errorStruct.ErrorMessage = UnknownEventTypeMessage
	}

	return errorStruct
}
