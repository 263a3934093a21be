package model

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Error      *ErrorBody  `json:"error"`
}

type ErrorBody struct {
	Message string `json:"message"`
}

func Success(status int, data interface{}) Response {
	return Response{Success: true, StatusCode: status, Data: data}
}

func Failure(status int, message string) Response {
	return Response{StatusCode: status, Error: &ErrorBody{Message: message}}
}
