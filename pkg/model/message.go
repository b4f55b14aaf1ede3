package model

import (
	"encoding/json"
	"errors"
)

const MessageTypeRunTranscriptWorkflow = "RUN_TRANSCRIPT_WORKFLOW"

type RunRequest struct {
	Type     string `json:"type" jsonschema:"enum=RUN_TRANSCRIPT_WORKFLOW"`
	VideoURL string `json:"videoUrl"`
}

// RunResponse is either {success:true, glossary:[...]} or {success:false, error:"..."}.
type RunResponse struct {
	Success  bool        `json:"success"`
	Glossary GlossarySet `json:"glossary,omitempty"`
	Error    string      `json:"error,omitempty"`

	// Kind is kept for in-process callers and is not part of the wire format.
	Kind ErrorKind `json:"-"`
}

func NewRunSuccess(glossary GlossarySet) RunResponse {
	if glossary == nil {
		glossary = GlossarySet{}
	}
	return RunResponse{Success: true, Glossary: glossary}
}

func NewRunFailure(err error) RunResponse {
	if err == nil {
		err = errors.New("unknown error")
	}
	return RunResponse{Success: false, Error: err.Error(), Kind: KindOf(err)}
}

func (r RunResponse) MarshalJSON() ([]byte, error) {
	if r.Success {
		glossary := r.Glossary
		if glossary == nil {
			glossary = GlossarySet{}
		}
		return json.Marshal(struct {
			Success  bool        `json:"success"`
			Glossary GlossarySet `json:"glossary"`
		}{Success: true, Glossary: glossary})
	}

	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{Success: false, Error: r.Error})
}
