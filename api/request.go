package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"wordforms.dev/declensions/pipeline"
	"wordforms.dev/declensions/utils"
)

// requestTid names an API run after its body so repeated submissions of the
// same list share a tid in the logs.
func requestTid(body []byte) string {
	return fmt.Sprintf("api-%016x", utils.HashString(string(body)))
}

// Request serves POST / with a newline separated word list in the body and
// answers with the grouped dictionary as JSON.
type Request struct {
	Pipeline pipeline.Pipeline
}

type errorResponse struct {
	Stage string `json:"stage,omitempty"`
	Index *int   `json:"index,omitempty"`
	Item  string `json:"item,omitempty"`
	Error string `json:"error"`
}

func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	log := makeRequestLogger(defaultLogger(), r)

	if r.Method != http.MethodPost {
		log.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	lines, err := utils.SplitLines(body)
	if err != nil {
		log.Err(err).Int("status", http.StatusBadRequest).Msg("Could not split request body into lines")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	request := pipeline.Request{
		Tid:   requestTid(body),
		Lines: lines,
	}
	log.Info().Str("tid", request.Tid).Int("lines", len(lines)).Msg("Starting pipeline for request from API")
	dict, err := req.Pipeline(r.Context(), request)
	if err != nil {
		status, payload := describeFailure(err)
		log.Err(err).Int("status", status).Msg("Pipeline failed")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
		return
	}

	resp, err := json.Marshal(dict)
	if err != nil {
		log.Err(err).Int("status", http.StatusInternalServerError).Msg("Could not serialize dictionary")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(resp)
	log.Info().Int("status", http.StatusOK).Int("words", dict.WordCount()).Msg("Finished processing request")
}

// describeFailure maps stage failures to 502 since they come from a remote
// service. Anything else is ours.
func describeFailure(err error) (int, errorResponse) {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		return http.StatusInternalServerError, errorResponse{Error: err.Error()}
	}
	payload := errorResponse{
		Stage: stageErr.Stage,
		Item:  stageErr.Item,
		Error: stageErr.Err.Error(),
	}
	if stageErr.Index >= 0 {
		index := stageErr.Index
		payload.Index = &index
	}
	return http.StatusBadGateway, payload
}
