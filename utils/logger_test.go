package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLazyInitIsSafeForConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, Logger())
			assert.NotNil(t, ErrLogger())
		}()
	}
	wg.Wait()

	assert.Same(t, InfoLogger, Logger())
	assert.Same(t, ErrorLogger, ErrLogger())
}
