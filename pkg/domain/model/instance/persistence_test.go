package instance_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

func TestDefaultPersistenceConfig(t *testing.T) {
	cfg := instance.DefaultPersistenceConfig()

	gt.True(t, cfg.SaveChatHistory)
	gt.True(t, cfg.SaveErrors)
	gt.True(t, cfg.SaveTaskExecution)
	gt.False(t, cfg.SaveMedia)
	gt.Equal(t, instance.StorageModeInline, cfg.StorageMode)
	gt.Equal(t, 0, cfg.RetentionDays)
}

func TestPersistenceConfigApply(t *testing.T) {
	t.Run("nil patch keeps defaults", func(t *testing.T) {
		cfg := instance.DefaultPersistenceConfig().Apply(nil)
		gt.Equal(t, instance.DefaultPersistenceConfig(), cfg)
	})

	t.Run("partial patch overrides only set fields", func(t *testing.T) {
		saveMedia := true
		saveChat := false
		mode := instance.StorageModeExternal

		cfg := instance.DefaultPersistenceConfig().Apply(&instance.PersistenceConfigPatch{
			SaveChatHistory: &saveChat,
			SaveMedia:       &saveMedia,
			StorageMode:     &mode,
		})

		gt.False(t, cfg.SaveChatHistory)
		gt.True(t, cfg.SaveMedia)
		gt.Equal(t, instance.StorageModeExternal, cfg.StorageMode)
		// Untouched fields keep defaults
		gt.True(t, cfg.SaveErrors)
		gt.True(t, cfg.SaveTaskExecution)
	})

	t.Run("receiver is not modified", func(t *testing.T) {
		base := instance.DefaultPersistenceConfig()
		saveMedia := true
		_ = base.Apply(&instance.PersistenceConfigPatch{SaveMedia: &saveMedia})
		gt.False(t, base.SaveMedia)
	})
}

func TestShouldPersist(t *testing.T) {
	cfg := instance.PersistenceConfig{
		SaveChatHistory:   false,
		SaveErrors:        true,
		SaveTaskExecution: false,
		SaveMedia:         true,
		StorageMode:       instance.StorageModeInline,
	}

	gt.False(t, cfg.ShouldPersist(types.JournalTypeChat))
	gt.True(t, cfg.ShouldPersist(types.JournalTypeError))
	gt.False(t, cfg.ShouldPersist(types.JournalTypeTask))
	gt.True(t, cfg.ShouldPersist(types.JournalTypeMedia))

	t.Run("system entries always persist", func(t *testing.T) {
		allOff := instance.PersistenceConfig{StorageMode: instance.StorageModeInline}
		gt.True(t, allOff.ShouldPersist(types.JournalTypeSystem))
	})

	t.Run("stable for repeated calls", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			gt.False(t, cfg.ShouldPersist(types.JournalTypeChat))
		}
	})
}

func TestPersistenceConfigPatchIsEmpty(t *testing.T) {
	gt.True(t, (*instance.PersistenceConfigPatch)(nil).IsEmpty())
	gt.True(t, (&instance.PersistenceConfigPatch{}).IsEmpty())

	v := true
	gt.False(t, (&instance.PersistenceConfigPatch{SaveErrors: &v}).IsEmpty())
}
