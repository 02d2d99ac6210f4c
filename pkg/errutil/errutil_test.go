package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aussiebroadwan/fitra/pkg/errutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError(t *testing.T) {
	t.Run("oops error carries code and context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		err := oops.Code("STORAGE_FAILED").With("op", "create_user").Errorf("insert failed")
		errutil.LogError(logger, "signup failed", err)

		entry := decodeLine(t, &buf)
		require.Equal(t, "ERROR", entry["level"])
		require.Equal(t, "signup failed", entry["msg"])
		require.Equal(t, "STORAGE_FAILED", entry["code"])
		require.Contains(t, entry["context"], "op")
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		errutil.LogError(logger, "signup failed", errors.New("disk full"))

		entry := decodeLine(t, &buf)
		require.Equal(t, "disk full", entry["error"])
		require.NotContains(t, entry, "code")
	})
}

func TestCode(t *testing.T) {
	sentinel := errors.New("user already exists")

	require.Equal(t, "USER_EXISTS", errutil.Code(oops.Code("USER_EXISTS").Wrap(sentinel)))
	require.Empty(t, errutil.Code(sentinel))
	require.Empty(t, errutil.Code(oops.Errorf("no code")))
}

func TestAssertHelpers(t *testing.T) {
	err := oops.Code("VALIDATION_FAILED").With("field", "email").Errorf("email is required")

	errutil.AssertErrorCode(t, err, "VALIDATION_FAILED")
	errutil.AssertErrorContext(t, err, "field", "email")
}
