package render

import (
	"errors"
	"fmt"

	"github.com/roach88/ratelens/internal/ast"
)

// SelfCheck renders a synthetic instance of every node variant and checks
// that every template id the catalog references has a pattern. All
// failures are reported together.
func (r *Renderer) SelfCheck() error {
	var errs []error

	for _, kind := range ast.AllKinds() {
		n, err := ast.Synthetic(kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := r.Render(n); err != nil {
			errs = append(errs, fmt.Errorf("self-check %s: %w", kind, err))
		}
	}

	for _, kind := range r.catalog.Templates() {
		if _, ok := r.table.Pattern(kind); !ok {
			errs = append(errs, fmt.Errorf("catalog template %s: %w", kind, ErrMissingTemplate))
		}
	}

	return errors.Join(errs...)
}
