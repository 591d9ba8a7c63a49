package vsco

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vscoerrors "vscodl/pkg/errors"
	"vscodl/pkg/logger"
)

func seedImages(t *testing.T, fake *fakeVSCO, n int) Images {
	t.Helper()
	c := fake.client()
	images := make(Images, n)
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("p/%d.png", i)
		fake.setFile("/"+path, pngBytes(t, uint8(i)))
		images[i] = NewImage(Metadata{ID: fmt.Sprint(i), AdaptiveBase: path}, c)
	}
	return images
}

func TestLoadAllSequentialAndConcurrentAgree(t *testing.T) {
	for _, concurrency := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			fake := newFakeVSCO(t)
			images := seedImages(t, fake, 6)

			require.NoError(t, images.LoadAll(context.Background(), concurrency, nil))

			assert.Len(t, images.Loaded(), 6)
			for i, img := range images {
				r, _, _, _ := img.Payload().At(0, 0).RGBA()
				assert.Equal(t, uint32(i)*0x101, r, "image %d has its own payload", i)
			}
		})
	}
}

func TestLoadAllSwallowsAlreadyLoaded(t *testing.T) {
	fake := newFakeVSCO(t)
	images := seedImages(t, fake, 3)
	require.NoError(t, images[1].Download(context.Background()))

	log := logger.NewTestLogger()
	require.NoError(t, LoadAll(context.Background(), images, 2, log))

	assert.Len(t, images.Loaded(), 3)
	assert.True(t, log.HasMessage("image already loaded"))
	assert.EqualValues(t, 3, atomic.LoadInt32(&fake.fileHits))
}

func TestLoadAllCollectsFailures(t *testing.T) {
	fake := newFakeVSCO(t)
	images := seedImages(t, fake, 4)
	images = append(images,
		NewImage(Metadata{ID: "missing", AdaptiveBase: "p/missing.png"}, fake.client()),
		NewImage(Metadata{ID: "also-missing", AdaptiveBase: "p/also-missing.png"}, fake.client()),
	)

	for _, concurrency := range []int{0, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			for _, img := range images {
				img.payload = nil
			}
			log := logger.NewTestLogger()

			err := LoadAll(context.Background(), images, concurrency, log)
			require.Error(t, err)
			assert.True(t, vscoerrors.IsRequest(err))
			assert.Contains(t, err.Error(), "missing")
			assert.Contains(t, err.Error(), "also-missing")

			assert.Len(t, images.Loaded(), 4, "failures do not stop the other downloads")
			assert.True(t, log.HasMessage("some images failed to download"))
		})
	}
}

func TestLoadAllBoundsConcurrency(t *testing.T) {
	fake := newFakeVSCO(t)
	fake.mu.Lock()
	fake.fileDelay = 20 * time.Millisecond
	fake.mu.Unlock()
	images := seedImages(t, fake, 10)

	require.NoError(t, LoadAll(context.Background(), images, 3, nil))

	assert.Len(t, images.Loaded(), 10)
	assert.LessOrEqual(t, atomic.LoadInt32(&fake.maxInFlight), int32(3))
}

func TestLoadAllCancelled(t *testing.T) {
	fake := newFakeVSCO(t)
	images := seedImages(t, fake, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := LoadAll(ctx, images, 2, nil)
	assert.Error(t, err)
	assert.Empty(t, images.Loaded())
}

func TestFilter(t *testing.T) {
	images := Images{
		NewImage(Metadata{ID: "a", IsVideo: true}, nil),
		NewImage(Metadata{ID: "b"}, nil),
	}
	kept := images.Filter(func(img *Image) bool { return !img.IsVideo })
	require.Len(t, kept, 1)
	assert.Equal(t, "b", kept[0].ID)
	assert.Empty(t, images.Loaded())

	found, ok := images.Find("a")
	require.True(t, ok)
	assert.True(t, found.IsVideo)
	_, ok = images.Find("nope")
	assert.False(t, ok)
}
