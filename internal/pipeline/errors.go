package pipeline

import (
	"errors"
	"fmt"

	"tunegrab/internal/services"
)

// Stage names, in execution order.
const (
	StageProvision = "provision"
	StageResolve   = "resolve"
	StageDownload  = "download"
	StageConvert   = "convert"
	StageSanitize  = "sanitize"
	StageInfer     = "infer"
	StageTag       = "tag"
	StageRecord    = "record"
)

var (
	// ErrNoResults means a search returned nothing.
	ErrNoResults = fmt.Errorf("%w: no search results", services.ErrInputValidation)
	// ErrRenameCollision means the sanitized filename is taken by another file.
	ErrRenameCollision = fmt.Errorf("%w: sanitized filename already exists", services.ErrFileSystem)
	// ErrNoTranscoder means a download arrived in another format and no
	// transcoder is wired.
	ErrNoTranscoder = fmt.Errorf("%w: download is not an mp3 and no transcoder is configured", services.ErrConfiguration)
	// ErrStagePanic means a stage panicked; the batch keeps going.
	ErrStagePanic = errors.New("stage panicked")
)

// StageError attributes a failure to the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FailedStage returns the stage name carried by err, if any.
func FailedStage(err error) (string, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}
