package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/chordscan/internal/adapters/mq/queue"
	"github.com/okian/chordscan/internal/adapters/mq/worker"
	"github.com/okian/chordscan/internal/domain/model"
	logging "github.com/okian/chordscan/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

// mockQueue feeds tasks straight from a channel.
type mockQueue struct {
	tasks chan queue.Task
	once  sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{tasks: make(chan queue.Task, 64)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Task { return mq.tasks }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.tasks) })
	return nil
}

// mockProcessor returns one chord per job and fails jobs it was told to.
type mockProcessor struct {
	mu     sync.Mutex
	fail   map[string]error
	panics map[string]bool
	seen   []string
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{fail: map[string]error{}, panics: map[string]bool{}}
}

func (mp *mockProcessor) Process(_ context.Context, job model.Job) (model.ScanResult, error) {
	mp.mu.Lock()
	mp.seen = append(mp.seen, job.ID)
	err := mp.fail[job.ID]
	boom := mp.panics[job.ID]
	mp.mu.Unlock()

	if boom {
		panic("engine wrapper exploded")
	}
	if err != nil {
		return model.ScanResult{}, err
	}
	return model.ScanResult{
		Job:    job,
		Chords: []model.MeasureChordResult{{Measure: 1, Chord: "C", Notes: []model.PitchClass{"C", "E", "G"}}},
	}, nil
}

func (mp *mockProcessor) count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.seen)
}

func await(t queue.Task) queue.Result {
	select {
	case r := <-t.Result:
		return r
	case <-time.After(2 * time.Second):
		return queue.Result{Err: errors.New("timed out waiting for result")}
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running InMemoryWorker", t, func() {
		mq := newMockQueue()
		mp := newMockProcessor()
		w := worker.NewInMemoryWorker(mq, mp, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a task succeeds", func() {
			task := queue.NewTask(model.Job{ID: "1700000000000"})
			mq.tasks <- task
			res := await(task)

			convey.Convey("Then the result carries the chords", func() {
				convey.So(res.Err, convey.ShouldBeNil)
				convey.So(res.Scan.Job.ID, convey.ShouldEqual, "1700000000000")
				convey.So(res.Scan.Chords[0].Chord, convey.ShouldEqual, "C")
			})
		})

		convey.Convey("When the processor returns a typed error", func() {
			mp.fail["bad"] = model.NewKind(model.KindTimeout, "engine timed out")
			task := queue.NewTask(model.Job{ID: "bad"})
			mq.tasks <- task
			res := await(task)

			convey.Convey("Then the kind is preserved", func() {
				convey.So(model.KindOf(res.Err), convey.ShouldEqual, model.KindTimeout)
			})
		})

		convey.Convey("When the processor returns a plain error", func() {
			mp.fail["plain"] = errors.New("disk full")
			task := queue.NewTask(model.Job{ID: "plain"})
			mq.tasks <- task
			res := await(task)

			convey.Convey("Then it is wrapped as a model error", func() {
				_, ok := model.AsError(res.Err)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res.Err.Error(), convey.ShouldContainSubstring, "disk full")
			})
		})

		convey.Convey("When the processor panics", func() {
			mp.panics["boom"] = true
			task := queue.NewTask(model.Job{ID: "boom"})
			mq.tasks <- task
			res := await(task)

			convey.Convey("Then the task fails and the worker keeps running", func() {
				convey.So(errors.Is(res.Err, worker.ErrPanic), convey.ShouldBeTrue)

				next := queue.NewTask(model.Job{ID: "after"})
				mq.tasks <- next
				convey.So(await(next).Err, convey.ShouldBeNil)
				convey.So(w.Processed(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When shutting down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it should stop gracefully", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		mq := newMockQueue()
		w := worker.NewInMemoryWorker(mq, newMockProcessor())
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		convey.Convey("Then shutdown returns promptly", func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
			defer done()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, newMockQueue(), newMockProcessor())

			convey.Convey("Then it falls back to at least one worker", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When processing many concurrent tasks", func() {
			mq := newMockQueue()
			mp := newMockProcessor()
			pool := worker.NewPool(4, mq, mp)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			const n = 40
			tasks := make([]queue.Task, n)
			for i := range tasks {
				tasks[i] = queue.NewTask(model.Job{ID: fmt.Sprint(i)})
			}
			go func() {
				for _, task := range tasks {
					mq.tasks <- task
				}
			}()

			convey.Convey("Then every caller receives its own result", func() {
				for i := range tasks {
					res := await(tasks[i])
					convey.So(res.Err, convey.ShouldBeNil)
					convey.So(res.Scan.Job.ID, convey.ShouldEqual, fmt.Sprint(i))
				}
				convey.So(mp.count(), convey.ShouldEqual, n)

				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(pool.Processed(), convey.ShouldEqual, n)
			})
		})
	})
}

func TestWorkerPoolWithRealQueue(t *testing.T) {
	convey.Convey("Given a pool reading an in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		pool := worker.NewPool(2, q, worker.ProcessorFunc(func(_ context.Context, job model.Job) (model.ScanResult, error) {
			return model.ScanResult{Job: job}, nil
		}))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		task := queue.NewTask(model.Job{ID: "42"})
		convey.So(q.Enqueue(ctx, task), convey.ShouldBeTrue)

		convey.Convey("Then the task round-trips and shutdown closes the queue", func() {
			convey.So(await(task).Scan.Job.ID, convey.ShouldEqual, "42")
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
		})
	})
}
