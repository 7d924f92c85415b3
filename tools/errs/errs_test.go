package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeErrorIs(t *testing.T) {
	err := ErrRecordNotFound.WrapMsg("no such row", "owner", "alice")
	require.True(t, ErrRecordNotFound.Is(err))
	require.False(t, ErrDuplicateKey.Is(err))

	// 细分码归属到父码
	require.True(t, ErrRecordNotFound.Is(ErrConversationNotFound.Wrap()))
	require.True(t, ErrRecordNotFound.Is(ErrGroupMemberNotFound.Wrap()))
	require.True(t, ErrDuplicateKey.Is(ErrGroupMemberDuplicate.Wrap()))
	require.True(t, ErrDuplicateKey.Is(ErrStrangerHasRelationship.Wrap()))
	// 反方向不成立
	require.False(t, ErrConversationNotFound.Is(ErrRecordNotFound.Wrap()))
}

func TestWrapMsgDetail(t *testing.T) {
	err := ErrInvalidVersion.WrapMsg("bad version", "version", "xyz")
	var codeErr CodeError
	require.True(t, errors.As(err, &codeErr))
	require.Equal(t, InvalidVersionError, codeErr.Code)
	require.Contains(t, codeErr.Detail, "version=xyz")
}

func TestNewWithKV(t *testing.T) {
	err := New("connect failed", "addr", "127.0.0.1")
	require.Contains(t, err.Error(), "connect failed")
	require.Contains(t, err.Error(), "addr=127.0.0.1")
}

func TestIsNonCodeError(t *testing.T) {
	require.False(t, ErrRecordNotFound.Is(errors.New("plain error")))
	require.False(t, ErrRecordNotFound.Is(nil))
}
