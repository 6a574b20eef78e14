package model

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures across both pipelines
var (
	ErrTagConfig   = goerr.NewTag("config")
	ErrTagAuth     = goerr.NewTag("auth")
	ErrTagNotFound = goerr.NewTag("not_found")
	ErrTagSchema   = goerr.NewTag("schema")
	ErrTagPath     = goerr.NewTag("path")
	ErrTagMutation = goerr.NewTag("mutation")
)

// ErrCategory returns the classification of err based on its error tag,
// or an empty string when err carries no known tag.
func ErrCategory(err error) string {
	switch {
	case goerr.HasTag(err, ErrTagConfig):
		return "config"
	case goerr.HasTag(err, ErrTagAuth):
		return "auth"
	case goerr.HasTag(err, ErrTagNotFound):
		return "not_found"
	case goerr.HasTag(err, ErrTagSchema):
		return "schema"
	case goerr.HasTag(err, ErrTagPath):
		return "path"
	case goerr.HasTag(err, ErrTagMutation):
		return "mutation"
	default:
		return ""
	}
}
