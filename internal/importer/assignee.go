package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnwards/crmimport/internal/store"
)

// resolveAssignee maps a Sugar user name onto a user of the run's tenant
// through the run's user mapping. It returns nil when the name is empty or
// cannot be resolved; unresolved names are warned about once per run.
func (imp *Importer) resolveAssignee(ctx context.Context, run *runState, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}

	email, ok := run.users[name]
	if !ok {
		imp.warnAssignee(run, name, "assignee does not have a user mapping")
		return nil, nil
	}

	u, err := imp.store.Users.GetByEmail(ctx, run.tenantID, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			imp.warnAssignee(run, name, "assignee does not exist as a user", "email", email)
			return nil, nil
		}
		return nil, fmt.Errorf("get assignee: %w", err)
	}
	return &u.ID, nil
}

func (imp *Importer) warnAssignee(run *runState, name, msg string, attrs ...any) {
	if _, seen := run.warned[name]; seen {
		return
	}
	run.warned[name] = struct{}{}
	imp.metrics.UnresolvedAssignee()
	run.log.Warn(msg, append([]any{"assignee", name}, attrs...)...)
}
