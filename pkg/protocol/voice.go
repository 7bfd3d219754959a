package protocol

// TranscriptionResponse is returned by the voice transcribe endpoint.
type TranscriptionResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// SynthesizeRequest asks the voice service to speak text.
type SynthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}
