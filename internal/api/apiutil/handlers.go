package apiutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError sends the standard error envelope. Internal detail stays in the
// log; the client only sees the message.
func WriteError(w http.ResponseWriter, r *http.Request, herr HandlerError) {
	if herr.Status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(herr.Err).Int("status", herr.Status).Msg(herr.Message)
	} else if herr.Err != nil {
		log.Ctx(r.Context()).Warn().Err(herr.Err).Int("status", herr.Status).Msg(herr.Message)
	}
	_ = WriteJSON(w, herr.Status, map[string]string{"error": herr.Message})
}
