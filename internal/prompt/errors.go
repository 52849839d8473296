package prompt

import (
	"fmt"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Prompt error codes
const (
	ErrCodeTemplateNotFound types.ErrorCode = "PROMPT_TEMPLATE_NOT_FOUND"
	ErrCodeTemplateRender   types.ErrorCode = "TEMPLATE_RENDER_FAILED"
	ErrCodeInvalidTemplate  types.ErrorCode = "INVALID_TEMPLATE_SYNTAX"
)

// NewTemplateNotFoundError creates an error for an unknown template name
func NewTemplateNotFoundError(name string) error {
	return types.NewError(ErrCodeTemplateNotFound, fmt.Sprintf("prompt template not found: %s", name))
}

// NewTemplateRenderError creates an error for template rendering failures
func NewTemplateRenderError(name string, cause error) error {
	return types.WrapError(
		ErrCodeTemplateRender,
		fmt.Sprintf("failed to render template '%s'", name),
		cause,
	)
}

// NewInvalidTemplateError creates an error for invalid template syntax
func NewInvalidTemplateError(name string, cause error) error {
	return types.WrapError(
		ErrCodeInvalidTemplate,
		fmt.Sprintf("invalid template syntax in '%s'", name),
		cause,
	)
}
