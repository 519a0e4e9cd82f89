package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"wordforms.dev/declensions/logger"
)

type endpointLoggerFields struct {
	Method string `json:"method"`
	Url    string `json:"url"`
	Remote string `json:"remote"`
}

const RequestInfoFieldsKey = "request_info"

func makeRequestLogger(base zerolog.Logger, request *http.Request) zerolog.Logger {
	fields := endpointLoggerFields{
		Method: request.Method,
		Url:    request.URL.String(),
		Remote: request.RemoteAddr,
	}
	return base.With().Interface(RequestInfoFieldsKey, fields).Logger()
}

func defaultLogger() zerolog.Logger {
	return logger.NewLogger("API")
}
