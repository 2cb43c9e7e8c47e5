package evaluation

import (
	"errors"

	"github.com/ilramdhan/scene-expr/pkg/expression"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

var (
	ErrEmptyExpression   = errors.New("empty expression")
	ErrExpressionTooLong = errors.New("expression too long")
	ErrKindMismatch      = errors.New("condition value kind mismatch")
	ErrJobNotPending     = errors.New("job is not pending")
)

// IsInputError reports whether err comes from the submitted expression or
// request rather than from the service
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrEmptyExpression,
		ErrExpressionTooLong,
		ErrKindMismatch,
		expression.ErrSyntax,
		expression.ErrUnresolvedFunction,
		expression.ErrBothPathsFailed,
		expression.ErrNotPreprocessed,
		objectid.ErrInvalidID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
