package fs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/nagare/pkg/adapters/fs"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	client, err := fs.New(t.TempDir())
	gt.NoError(t, err)

	key := "media/user-1/wf-1/inst-1/object-1"
	gt.NoError(t, client.Put(ctx, key, []byte("hello")))

	data, err := client.Get(ctx, key)
	gt.NoError(t, err)
	gt.Equal(t, []byte("hello"), data)

	t.Run("missing key", func(t *testing.T) {
		_, err := client.Get(ctx, "media/missing")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, interfaces.ErrStorageKeyNotFound))
	})

	t.Run("overwrite replaces content", func(t *testing.T) {
		gt.NoError(t, client.Put(ctx, key, []byte("replaced")))
		data, err := client.Get(ctx, key)
		gt.NoError(t, err)
		gt.Equal(t, []byte("replaced"), data)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		gt.NoError(t, client.Delete(ctx, key))
		gt.NoError(t, client.Delete(ctx, key))
		_, err := client.Get(ctx, key)
		gt.True(t, errors.Is(err, interfaces.ErrStorageKeyNotFound))
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	client, err := fs.New(t.TempDir())
	gt.NoError(t, err)

	gt.NoError(t, client.Put(ctx, "media/a/1", []byte("x")))
	gt.NoError(t, client.Put(ctx, "media/a/2", []byte("y")))
	gt.NoError(t, client.Put(ctx, "media/b/1", []byte("z")))

	keys, err := client.List(ctx, "media/a/")
	gt.NoError(t, err)
	gt.A(t, keys).Length(2)

	all, err := client.List(ctx, "")
	gt.NoError(t, err)
	gt.A(t, all).Length(3)
}

func TestKeyValidation(t *testing.T) {
	ctx := context.Background()
	client, err := fs.New(t.TempDir())
	gt.NoError(t, err)

	for _, key := range []string{
		"",
		"../outside",
		"media/../../etc/passwd",
		"/absolute/path",
		"media\\windows",
		"media/\x00null",
	} {
		err := client.Put(ctx, key, []byte("x"))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, interfaces.ErrInvalidStorageKey))
	}
}
