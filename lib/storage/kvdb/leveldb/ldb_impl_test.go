package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xminter/lib/storage/kvdb"
)

func openDBs(t *testing.T) map[string]kvdb.Database {
	disk, err := kvdb.CreateKVInstance(&kvdb.KVParameter{
		DBPath:       filepath.Join(t.TempDir(), "ldb"),
		KVEngineType: kvdb.KVEngineTypeLDB,
	})
	require.NoError(t, err)
	mem, err := kvdb.CreateKVInstance(&kvdb.KVParameter{KVEngineType: kvdb.KVEngineTypeMemory})
	require.NoError(t, err)

	t.Cleanup(func() {
		disk.Close()
		mem.Close()
	})
	return map[string]kvdb.Database{"disk": disk, "memory": mem}
}

func TestDatabaseOps(t *testing.T) {
	for name, db := range openDBs(t) {
		db := db
		t.Run(name, func(t *testing.T) {
			require.NoError(t, db.Put([]byte("bal/a/1"), []byte("10")))
			require.NoError(t, db.Put([]byte("bal/a/2"), []byte("20")))
			require.NoError(t, db.Put([]byte("other"), []byte("x")))

			v, err := db.Get([]byte("bal/a/1"))
			require.NoError(t, err)
			assert.Equal(t, "10", string(v))

			_, err = db.Get([]byte("nope"))
			assert.ErrorIs(t, err, kvdb.ErrNotFound)

			ok, err := db.Has([]byte("other"))
			require.NoError(t, err)
			assert.True(t, ok)

			var keys []string
			err = db.IterPrefix([]byte("bal/"), func(k, _ []byte) error {
				keys = append(keys, string(k))
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"bal/a/1", "bal/a/2"}, keys)

			require.NoError(t, db.Delete([]byte("bal/a/1")))
			ok, err = db.Has([]byte("bal/a/1"))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCreateUnknownEngine(t *testing.T) {
	_, err := kvdb.CreateKVInstance(&kvdb.KVParameter{KVEngineType: "badger"})
	assert.ErrorIs(t, err, kvdb.ErrEngineNotExist)

	_, err = kvdb.CreateKVInstance(&kvdb.KVParameter{KVEngineType: kvdb.KVEngineTypeLDB})
	assert.Error(t, err)
}
