package service

import (
	"fmt"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
)

// requireRole gates every mutating operation. It is a pure predicate: no
// side effects, comparison only through the Role enum.
func requireRole(user *model.User, allowed ...model.Role) error {
	for _, r := range allowed {
		if user.Role == r {
			return nil
		}
	}
	return fmt.Errorf("insufficient permissions: %w", common.ErrForbidden)
}
