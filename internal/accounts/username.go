package accounts

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
)

const defaultUsernameAttempts = 5

// usernameBase builds the deterministic stem: lowercased first and last name
// with everything outside [a-z0-9] dropped.
func usernameBase(firstName, lastName string) string {
	first := sanitizeNamePart(firstName)
	last := sanitizeNamePart(lastName)
	switch {
	case first == "" && last == "":
		return "user"
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + "." + last
}

func sanitizeNamePart(part string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(part)) {
		if unicode.IsLower(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// allocateUsername finds a free username for the role: the bare stem first,
// then suffixed candidates, giving up after maxAttempts.
func allocateUsername(ctx context.Context, repo Repository, role enums.ActorRole, base string, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultUsernameAttempts
	}
	attempt := 0
	var username string

	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate := base
		if attempt > 0 {
			candidate = base + "." + uuid.NewString()[:4]
		}
		attempt++

		taken, err := repo.UsernameExists(ctx, role, candidate)
		if err != nil {
			return err
		}
		if taken {
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeConflict, "username taken"))
		}
		username = candidate
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique username").
				WithDetails(map[string]any{"base": base, "attempts": attempt})
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking username availability failed")
	}
	return username, nil
}
