package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeInfoSnapshot(t *testing.T) {
	ch := &RelationChange{
		Kind: RelationChangeSyncInfo,
		Payload: map[string]string{
			PayloadKeyNickname: "阿波",
			PayloadKeyFaceURL:  "http://x/b.png",
		},
	}
	snap, err := ch.DecodeInfoSnapshot()
	require.NoError(t, err)
	require.Equal(t, "阿波", snap.Nickname)
	require.Equal(t, "http://x/b.png", snap.FaceURL)
	require.Empty(t, snap.Remark)
}

func TestDecodeInfoSnapshotEmptyPayload(t *testing.T) {
	snap, err := (&RelationChange{Kind: RelationChangeRemoveFriend}).DecodeInfoSnapshot()
	require.NoError(t, err)
	require.Equal(t, &InfoSnapshot{}, snap)
}
