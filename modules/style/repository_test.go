package style

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppiconni-pipeline-server/modules/common/errs"
)

func TestCreateAndResolve(t *testing.T) {
	repo := NewRepository(NewMemoryStore(), 20)

	entry, err := repo.Create(context.Background(), "Acquerello morbido", "pastel watercolor washes")
	require.NoError(t, err)
	require.NotEmpty(t, entry.StyleID)
	assert.Equal(t, "Acquerello morbido", entry.StyleName)
	assert.False(t, entry.HasReference())

	resolved, err := repo.Resolve(context.Background(), entry.StyleID)
	require.NoError(t, err)
	assert.Equal(t, entry.StyleID, resolved.StyleID)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	repo := NewRepository(NewMemoryStore(), 20)

	_, err := repo.Create(context.Background(), "   ", "")
	require.Error(t, err)

	var verr *errs.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestQuotaEnforcedAtLimit(t *testing.T) {
	repo := NewRepository(NewMemoryStore(), 3)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(context.Background(), fmt.Sprintf("style-%d", i), "")
		require.NoError(t, err)
	}

	_, err := repo.Create(context.Background(), "one-too-many", "")
	require.Error(t, err)
	assert.True(t, errs.IsQuotaExceeded(err))

	// 삭제 후에는 다시 등록 가능
	styles, err := repo.List(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), styles[0].StyleID))

	_, err = repo.Create(context.Background(), "after-delete", "")
	assert.NoError(t, err)
}

func TestQuotaUnderConcurrentCreates(t *testing.T) {
	const limit = 5
	repo := NewRepository(NewMemoryStore(), limit)

	var wg sync.WaitGroup
	results := make(chan error, limit*4)

	for i := 0; i < limit*4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := repo.Create(context.Background(), fmt.Sprintf("racer-%d", n), "")
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errs.IsQuotaExceeded(err))
		}
	}
	assert.Equal(t, limit, succeeded)

	count, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, count, limit)
}

func TestAttachReference(t *testing.T) {
	repo := NewRepository(NewMemoryStore(), 20)

	entry, err := repo.Create(context.Background(), "Linea pulita", "")
	require.NoError(t, err)

	updated, err := repo.AttachReference(context.Background(), entry.StyleID, "styles/"+entry.StyleID+"/reference.png")
	require.NoError(t, err)
	require.True(t, updated.HasReference())
	assert.Equal(t, "styles/"+entry.StyleID+"/reference.png", *updated.ReferenceImagePath)
}

func TestAttachReferenceUnknownStyle(t *testing.T) {
	repo := NewRepository(NewMemoryStore(), 20)

	_, err := repo.AttachReference(context.Background(), "missing-id", "styles/missing-id/reference.png")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteUnknownStyle(t *testing.T) {
	repo := NewRepository(NewMemoryStore(), 20)

	err := repo.Delete(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}
