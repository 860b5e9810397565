package tool

import "errors"

var (
	// ErrToolNotFound is returned when a tool is not found in the registry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments is returned when call arguments are not a JSON
	// object, miss a required parameter or carry a value of the wrong type.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrNoScopes is returned when a tool declares no scopes.
	ErrNoScopes = errors.New("tool must declare at least one scope")

	// ErrEmptyToolName is returned when a tool name is empty.
	ErrEmptyToolName = errors.New("tool name must not be empty")

	// ErrDuplicateTool is returned when registering a tool with a name that
	// already exists in the registry.
	ErrDuplicateTool = errors.New("tool already registered")
)
