// Package services holds the shop's business operations. Every operation takes
// the caller's Identity explicitly and re-reads the account before acting.
package services

import (
	"context"
	"fmt"
	"strings"

	"storefront/models"
	"storefront/repository"
)

func accountWithRole(ctx context.Context, st repository.Store, id models.Identity, roles ...models.Role) (*models.Account, error) {
	acct, err := st.AccountByID(ctx, id.AccountID)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if acct.Role == r {
			return acct, nil
		}
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return nil, fmt.Errorf("%w: %s role required", models.ErrForbidden, strings.Join(names, " or "))
}

func customerAccount(ctx context.Context, st repository.Store, id models.Identity) (*models.Account, error) {
	return accountWithRole(ctx, st, id, models.RoleCustomer)
}

func shopkeeperAccount(ctx context.Context, st repository.Store, id models.Identity) (*models.Account, error) {
	return accountWithRole(ctx, st, id, models.RoleShopkeeper)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}
