package compiler

import "errors"

var (
	ErrInvalidPipeline = errors.New("invalid pipeline")
)
