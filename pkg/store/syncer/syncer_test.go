package syncer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quipworks/quips/pkg/quip"
	"github.com/quipworks/quips/pkg/store/local"
	"github.com/quipworks/quips/pkg/store/syncer"
)

func TestSyncer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Syncer Suite")
}

// fakeRemote is an in-memory remote.Remote safe for the syncer's concurrent
// fetches and pushes.
type fakeRemote struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	failNames map[string]bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{blobs: make(map[string][]byte), failNames: make(map[string]bool)}
}

func (r *fakeRemote) List(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.blobs))
	for name := range r.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *fakeRemote) Get(_ context.Context, name string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNames[name] {
		return nil, errors.New("simulated fetch failure")
	}
	data, ok := r.blobs[name]
	if !ok {
		return nil, errors.New("blob not found: " + name)
	}
	return data, nil
}

func (r *fakeRemote) Put(_ context.Context, name string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNames[name] {
		return errors.New("simulated push failure")
	}
	r.blobs[name] = data
	return nil
}

func (r *fakeRemote) has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.blobs[name]
	return ok
}

var _ = Describe("Syncer", func() {
	var (
		tmpDir string
		driver *local.Driver
		rem    *fakeRemote
		s      *syncer.Syncer
		ctx    context.Context

		recA, recB, recC quip.Record
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "syncer-test-*")
		Expect(err).NotTo(HaveOccurred())

		driver, err = local.NewDriver(filepath.Join(tmpDir, "records"))
		Expect(err).NotTo(HaveOccurred())

		rem = newFakeRemote()
		s = syncer.NewSyncer(driver, rem, zap.NewNop())
		ctx = context.Background()

		base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
		recA = quip.New("the first quip in the archive", "deadpan", "fact a", base)
		recB = quip.New("the second quip in the archive", "deadpan", "fact b", base.Add(time.Minute))
		recC = quip.New("the third quip in the archive", "deadpan", "fact c", base.Add(2*time.Minute))
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Reconcile", func() {
		It("fetches only records missing locally", func() {
			for _, rec := range []quip.Record{recA, recB, recC} {
				Expect(rem.Put(ctx, rec.Filename(), rec.MarshalMarkdown())).To(Succeed())
			}
			Expect(driver.Append(ctx, recA)).To(Succeed())

			fetched, err := s.Reconcile(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched).To(Equal(2))

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(3))

			got, err := driver.Get(ctx, recC.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Text).To(Equal(recC.Text))
			Expect(got.Style).To(Equal(recC.Style))
		})

		It("is a no-op when local is already up to date", func() {
			Expect(rem.Put(ctx, recA.Filename(), recA.MarshalMarkdown())).To(Succeed())
			Expect(driver.Append(ctx, recA)).To(Succeed())

			fetched, err := s.Reconcile(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched).To(BeZero())
		})

		It("skips blobs that fail to fetch and keeps going", func() {
			Expect(rem.Put(ctx, recA.Filename(), recA.MarshalMarkdown())).To(Succeed())
			Expect(rem.Put(ctx, recB.Filename(), recB.MarshalMarkdown())).To(Succeed())
			rem.failNames[recA.Filename()] = true

			fetched, err := s.Reconcile(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched).To(Equal(1))

			ok, err := driver.Has(ctx, recB.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = driver.Has(ctx, recA.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("ignores non-record blobs", func() {
			rem.blobs["README.txt"] = []byte("not a record")

			fetched, err := s.Reconcile(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched).To(BeZero())

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})

	Describe("PushMissing", func() {
		It("pushes only records the remote lacks", func() {
			for _, rec := range []quip.Record{recA, recB, recC} {
				Expect(driver.Append(ctx, rec)).To(Succeed())
			}
			Expect(rem.Put(ctx, recA.Filename(), recA.MarshalMarkdown())).To(Succeed())

			pushed, err := s.PushMissing(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(pushed).To(Equal(2))

			Expect(rem.has(recB.Filename())).To(BeTrue())
			Expect(rem.has(recC.Filename())).To(BeTrue())
		})

		It("skips records that fail to push", func() {
			Expect(driver.Append(ctx, recA)).To(Succeed())
			Expect(driver.Append(ctx, recB)).To(Succeed())
			rem.failNames[recA.Filename()] = true

			pushed, err := s.PushMissing(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(pushed).To(Equal(1))
			Expect(rem.has(recB.Filename())).To(BeTrue())
		})
	})
})

// blockingRemote holds every Put until released, to make queue-full
// behavior deterministic.
type blockingRemote struct {
	*fakeRemote
	started chan struct{}
	release chan struct{}
}

func (r *blockingRemote) Put(ctx context.Context, name string, data []byte) error {
	r.started <- struct{}{}
	<-r.release
	return r.fakeRemote.Put(ctx, name, data)
}

var _ = Describe("Pusher", func() {
	newRecord := func(text string, offset time.Duration) quip.Record {
		base := time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC)
		return quip.New(text, "deadpan", "f", base.Add(offset))
	}

	It("pushes enqueued records before Close returns", func() {
		rem := newFakeRemote()
		p := syncer.NewPusher(&syncer.PusherConfig{Remote: rem, Logger: zap.NewNop()})

		rec := newRecord("a quip headed for the archive", 0)
		Expect(p.Enqueue(rec)).To(BeTrue())
		p.Close()

		Expect(rem.has(rec.Filename())).To(BeTrue())
	})

	It("drops jobs when the queue is full", func() {
		rem := &blockingRemote{
			fakeRemote: newFakeRemote(),
			started:    make(chan struct{}, 3),
			release:    make(chan struct{}),
		}
		p := syncer.NewPusher(&syncer.PusherConfig{
			Remote:     rem,
			NumWorkers: 1,
			QueueSize:  1,
			Logger:     zap.NewNop(),
		})

		first := newRecord("the first queued quip", 0)
		second := newRecord("the second queued quip", time.Second)
		third := newRecord("the third queued quip", 2*time.Second)

		Expect(p.Enqueue(first)).To(BeTrue())
		// Wait for the worker to pick up the first job and block in Put, so
		// the queue slot is free for exactly one more.
		Eventually(rem.started).Should(Receive())

		Expect(p.Enqueue(second)).To(BeTrue())
		Expect(p.Enqueue(third)).To(BeFalse())

		close(rem.release)
		p.Close()

		Expect(rem.has(first.Filename())).To(BeTrue())
		Expect(rem.has(second.Filename())).To(BeTrue())
		Expect(rem.has(third.Filename())).To(BeFalse())
	})
})
