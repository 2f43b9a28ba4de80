package config

import (
	"sync"
)

var (
	loadedPrompts     AllLoadedPrompts
	loadedPromptsOnce sync.Once
)

// OperationLoadedPrompts holds the prompt content loaded from files for one operation
type OperationLoadedPrompts struct {
	System string
	User   string
}

// AllLoadedPrompts holds all file-loaded prompts for all operations
type AllLoadedPrompts struct {
	Structure   OperationLoadedPrompts
	Role        OperationLoadedPrompts
	Bullets     OperationLoadedPrompts
	Profile     OperationLoadedPrompts
	SoftSkills  OperationLoadedPrompts
	CoverLetter OperationLoadedPrompts
}

// GetLoadedPrompts returns the loaded prompt content in a thread-safe way
func GetLoadedPrompts() *AllLoadedPrompts {
	return &loadedPrompts
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation type
func GetPromptsForOperation(operationType string) OperationLoadedPrompts {
	switch operationType {
	case "structure":
		return loadedPrompts.Structure
	case "role":
		return loadedPrompts.Role
	case "bullets":
		return loadedPrompts.Bullets
	case "profile":
		return loadedPrompts.Profile
	case "softSkills":
		return loadedPrompts.SoftSkills
	case "coverLetter":
		return loadedPrompts.CoverLetter
	default:
		return OperationLoadedPrompts{}
	}
}
