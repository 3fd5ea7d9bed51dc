package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/coursenese-be/internal/account"
	"github.com/hongminglow/coursenese-be/internal/models"
)

func stubPasswords(t *testing.T, entries ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(entries) {
			return nil, io.EOF
		}
		pw := entries[i]
		i++
		return []byte(pw), nil
	}
}

func TestConfirmPassword(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    string
		wantErr bool
	}{
		{"match", []string{"abcd1234", "abcd1234"}, "abcd1234", false},
		{"mismatch", []string{"abcd1234", "abcd12345"}, "", true},
		{"empty", []string{"", ""}, "", true},
		{"eof", []string{"abcd1234"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPasswords(t, tt.entries...)
			var out bytes.Buffer
			got, err := confirmPassword(&out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Repeat password: ")
		})
	}
}

func parse(t *testing.T, args ...string) (options, error) {
	t.Helper()
	var got options
	cmd := newCommand(func(_ context.Context, opts options, _ io.Writer) error {
		got = opts
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return got, err
}

func TestCommandFlags(t *testing.T) {
	opts, err := parse(t, "--email", "root@coursenese.com")
	require.NoError(t, err)
	assert.Equal(t, options{Email: "root@coursenese.com", Name: "Administrator"}, opts)

	opts, err = parse(t, "-e", "root@coursenese.com", "-n", "Root")
	require.NoError(t, err)
	assert.Equal(t, "Root", opts.Name)

	_, err = parse(t)
	assert.ErrorContains(t, err, "email")

	_, err = parse(t, "-e", "root@coursenese.com", "extra")
	assert.Error(t, err)
}

type mockAdmins struct{ mock.Mock }

func (m *mockAdmins) EnsureAdmin(ctx context.Context, in account.AdminInput) (models.User, bool, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.User), args.Bool(1), args.Error(2)
}

func TestEnsureAdmin(t *testing.T) {
	opts := options{Email: "root@coursenese.com", Name: "Root"}
	in := account.AdminInput{Name: "Root", Email: "root@coursenese.com", Password: "abcd1234"}
	pw := func() (string, error) { return "abcd1234", nil }

	t.Run("created", func(t *testing.T) {
		svc := &mockAdmins{}
		svc.On("EnsureAdmin", mock.Anything, in).Return(models.User{ID: 3, Email: in.Email}, true, nil)
		var out bytes.Buffer
		require.NoError(t, ensureAdmin(context.Background(), svc, opts, &out, pw))
		assert.Equal(t, "created admin root@coursenese.com (id 3)\n", out.String())
	})

	t.Run("promoted", func(t *testing.T) {
		svc := &mockAdmins{}
		svc.On("EnsureAdmin", mock.Anything, in).Return(models.User{ID: 7, Email: in.Email}, false, nil)
		var out bytes.Buffer
		require.NoError(t, ensureAdmin(context.Background(), svc, opts, &out, pw))
		assert.Contains(t, out.String(), "promoted")
	})

	t.Run("prompt failure skips the store", func(t *testing.T) {
		svc := &mockAdmins{}
		err := ensureAdmin(context.Background(), svc, opts, io.Discard, func() (string, error) {
			return "", errPasswordMismatch
		})
		assert.ErrorIs(t, err, errPasswordMismatch)
		svc.AssertNotCalled(t, "EnsureAdmin", mock.Anything, mock.Anything)
	})

	t.Run("service error", func(t *testing.T) {
		svc := &mockAdmins{}
		svc.On("EnsureAdmin", mock.Anything, in).Return(models.User{}, false, errors.New("boom"))
		assert.Error(t, ensureAdmin(context.Background(), svc, opts, io.Discard, pw))
	})
}
