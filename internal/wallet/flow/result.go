package flow

// tag discriminates stageResult.
type tag int

const (
	tagOK tag = iota
	tagInvalid
	tagAborted
)

// stageResult is Ok | Invalid(reason) | Aborted(cause), returned by every stage.
type stageResult struct {
	tag tag
	err error
}

func ok() stageResult {
	return stageResult{tag: tagOK}
}

// invalid rejects the user's input.
func invalid(err error) stageResult {
	return stageResult{tag: tagInvalid, err: err}
}

// aborted ends the flow for a reason other than malformed input, such as an unknown token.
func aborted(err error) stageResult {
	return stageResult{tag: tagAborted, err: err}
}
