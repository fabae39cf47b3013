package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerPool(t *testing.T) {
	t.Run("get and put", func(t *testing.T) {
		timer1 := GetTimer(time.Second)
		assert.NotNil(t, timer1)

		PutTimer(timer1)

		timer2 := GetTimer(20 * time.Millisecond)
		assert.NotNil(t, timer2)

		<-timer2.C
	})

	t.Run("reused timer does not carry a stale fire", func(t *testing.T) {
		timer1 := GetTimer(50 * time.Millisecond)
		time.Sleep(80 * time.Millisecond) // let timer1 fire unconsumed

		PutTimer(timer1)

		begin := time.Now()
		timer2 := GetTimer(200 * time.Millisecond)

		select {
		case fired := <-timer2.C:
			assert.GreaterOrEqual(t, fired.Sub(begin), 180*time.Millisecond)
		case <-time.After(300 * time.Millisecond):
			t.Error("timer should have fired within 300ms")
		}
	})

	t.Run("concurrent waits", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				timer := GetTimer(10 * time.Millisecond)
				defer PutTimer(timer)
				<-timer.C
			}()
		}
		wg.Wait()
	})
}
