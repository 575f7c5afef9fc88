package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/klokku/notebook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString_EscapesPassword(t *testing.T) {
	cfg := config.Database{Host: "db", Port: 5432, User: "notebook", Pass: "it's", Name: "notebook", Schema: "notebook"}

	assert.Equal(t,
		`host=db port=5432 user=notebook password='it\'s' dbname=notebook sslmode=disable options='-c search_path=notebook'`,
		connString(cfg))
	assert.Equal(t,
		"postgres://notebook:it%27s@db:5432/notebook?sslmode=disable&search_path=notebook",
		migrationUrl(cfg))
}

func TestFindMigrationsPath(t *testing.T) {
	path, err := findMigrationsPath()

	require.NoError(t, err)
	assert.DirExists(t, path)
}

func TestOpenRedis(t *testing.T) {
	t.Run("no url disables the cache", func(t *testing.T) {
		client, err := OpenRedis(config.Cache{})

		assert.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("connects to a running server", func(t *testing.T) {
		server := miniredis.RunT(t)

		client, err := OpenRedis(config.Cache{Url: "redis://" + server.Addr()})

		require.NoError(t, err)
		require.NotNil(t, client)
		assert.NoError(t, client.Close())
	})

	t.Run("fails for a malformed url", func(t *testing.T) {
		_, err := OpenRedis(config.Cache{Url: "not a url"})

		assert.Error(t, err)
	})
}
