package service

import (
	"context"
	"encoding/json"
	"fmt"

	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	apperrors "github.com/target/jobboard-portal/internal/errors"
	"github.com/target/jobboard-portal/internal/ports"
)

const rememberMeValue = "true"

// durableRecord is the decoded form of the persisted session keys.
type durableRecord struct {
	Token      string
	User       *domainauth.UserView
	Role       domainauth.Role
	RememberMe bool
	// Present reports whether any key of the record was stored.
	Present bool

	// corrupt is set when userData was present but could not be decoded, or
	// when a token was stored without any user data.
	corrupt error
}

// cachedRole is the role to fall back on when a fresh profile omits one.
func (r durableRecord) cachedRole() domainauth.Role {
	if r.User != nil && r.User.Role.Valid() {
		return r.User.Role
	}
	return r.Role
}

func readRecord(ctx context.Context, store ports.RecordStore) (durableRecord, error) {
	values, err := store.Get(ctx, domainauth.RecordKeys()...)
	if err != nil {
		return durableRecord{}, fmt.Errorf("read session record: %w", err)
	}

	rec := durableRecord{
		Token:      values[domainauth.KeyAuthToken],
		RememberMe: values[domainauth.KeyRememberMe] == rememberMeValue,
		Present:    len(values) > 0,
	}
	if role, ok := domainauth.ParseRole(values[domainauth.KeyUserRole]); ok {
		rec.Role = role
	}

	raw, ok := values[domainauth.KeyUserData]
	switch {
	case !ok || raw == "":
		if rec.Token != "" {
			rec.corrupt = apperrors.Corruption("stored session has no user data", nil)
		}
	default:
		var view domainauth.UserView
		if err := json.Unmarshal([]byte(raw), &view); err != nil {
			rec.corrupt = apperrors.Corruption("stored user data is unreadable", err)
		} else {
			rec.User = &view
		}
	}
	return rec, nil
}

// userValues encodes the user-derived keys of the record.
func userValues(view domainauth.UserView) (map[string]string, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("encode user data: %w", err)
	}
	return map[string]string{
		domainauth.KeyUserData: string(data),
		domainauth.KeyUserRole: string(view.Role),
	}, nil
}

// writeRecord stores the credential and user together.
func writeRecord(ctx context.Context, store ports.RecordStore, token string, view domainauth.UserView, rememberMe bool) error {
	values, err := userValues(view)
	if err != nil {
		return err
	}
	values[domainauth.KeyAuthToken] = token
	if rememberMe {
		values[domainauth.KeyRememberMe] = rememberMeValue
	}
	if err := store.Set(ctx, values); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	if !rememberMe {
		if err := store.Delete(ctx, domainauth.KeyRememberMe); err != nil {
			return fmt.Errorf("clear remember-me flag: %w", err)
		}
	}
	return nil
}

func clearRecord(ctx context.Context, store ports.RecordStore) error {
	if err := store.Delete(ctx, domainauth.RecordKeys()...); err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}
