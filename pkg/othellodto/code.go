package othellodto

type CodingQuestion struct {
	Question  string   `json:"question,omitempty"`
	TestCases []string `json:"testCases,omitempty"`
}

type SubmitCodeRequest struct {
	Code string `json:"code"`
}

// SubmitCodeResponse is the discriminated result of POST /submitCode.
// On success the output fields are set; otherwise Error may carry a reason.
type SubmitCodeResponse struct {
	Success       bool   `json:"success"`
	Stdout        string `json:"stdout,omitempty"`
	Stderr        string `json:"stderr,omitempty"`
	CompileOutput string `json:"compile_output,omitempty"`
	Error         string `json:"error,omitempty"`
}
