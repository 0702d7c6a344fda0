package router

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// MaxPayloadSize is a max size of a request body accepted by BindPayload
const MaxPayloadSize = 64 * 1024

type handlerToolkit struct {
	request        *http.Request
	responseWriter http.ResponseWriter
	validator      *structValidator
	pathParamValue pathParamValueFunc
}

func (h *handlerToolkit) BindParams() *ParamsBinder {
	return &ParamsBinder{
		req:            h.request,
		validator:      h.validator,
		pathParamValue: h.pathParamValue,
	}
}

func (h *handlerToolkit) BindPayload(receiver interface{}) error {
	ctx := h.request.Context()
	body := http.MaxBytesReader(h.responseWriter, h.request.Body, MaxPayloadSize)
	if err := json.NewDecoder(body).Decode(receiver); err != nil {
		logger.WithError(err).Info(ctx, "Failed to decode payload")
		switch {
		case err == io.EOF:
			return BadRequestError("Payload is required")
		case strings.Contains(err.Error(), "request body too large"):
			return NewHTTPError(http.StatusRequestEntityTooLarge, "Payload is too large")
		}
		return BadRequestError("Malformed payload: " + err.Error())
	}

	if _, isMap := receiver.(*map[string]interface{}); isMap {
		return nil
	}

	return h.validator.validateStruct(ctx, receiver)
}

func (h *handlerToolkit) WriteJSON(payload interface{}, decorators ...ResponseDecorator) error {
	// WithStatus sends the header so content type goes first
	h.responseWriter.Header().Set("content-type", "application/json")

	for _, decorator := range decorators {
		if err := decorator(h.responseWriter); err != nil {
			return err
		}
	}
	return json.NewEncoder(h.responseWriter).Encode(payload)
}

// WithStatus decorate response with particular http status
func (h *handlerToolkit) WithStatus(status int) ResponseDecorator {
	return func(w http.ResponseWriter) error {
		w.WriteHeader(status)
		return nil
	}
}

// WithHeader sets a response header. Must go before WithStatus
func (h *handlerToolkit) WithHeader(name string, value string) ResponseDecorator {
	return func(w http.ResponseWriter) error {
		w.Header().Set(name, value)
		return nil
	}
}
