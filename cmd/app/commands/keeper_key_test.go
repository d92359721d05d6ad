package commands

import (
	"bytes"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCreateKeeperKey(t *testing.T) {
	keyPattern := regexp.MustCompile(`base64key://([A-Za-z0-9_=-]+)`)

	t.Run("generates-valid-uri", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateKeeperKey(&out)

		require.NoError(t, err)
		require.Contains(t, out.String(), `KEEPER_URI="base64key://`)
		require.Contains(t, out.String(), "Never use base64key:// in production")

		matches := keyPattern.FindStringSubmatch(out.String())
		require.Len(t, matches, 2)

		key, err := base64.URLEncoding.DecodeString(matches[1])
		require.NoError(t, err)
		require.Len(t, key, 32)
	})

	t.Run("generates-unique-keys", func(t *testing.T) {
		var first, second bytes.Buffer
		require.NoError(t, RunCreateKeeperKey(&first))
		require.NoError(t, RunCreateKeeperKey(&second))

		firstKey := keyPattern.FindStringSubmatch(first.String())
		secondKey := keyPattern.FindStringSubmatch(second.String())
		require.Len(t, firstKey, 2)
		require.Len(t, secondKey, 2)
		require.NotEqual(t, firstKey[1], secondKey[1])
	})
}
