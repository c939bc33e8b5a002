package newbill_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pigeonworks-llc/billed/pkg/bills"
	"github.com/pigeonworks-llc/billed/pkg/newbill"
)

// fakeStore records calls. Uploads and saves for a gated name block until
// the gate is closed.
type fakeStore struct {
	mu          sync.Mutex
	uploads     []bills.UploadedFile
	saved       []bills.BillRecord
	uploadErr   error
	createErr   error
	uploadGates map[string]chan struct{}
	createGate  chan struct{}
	started     chan string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		uploadGates: map[string]chan struct{}{},
		started:     make(chan string, 16),
	}
}

func (s *fakeStore) ListBills(ctx context.Context) ([]bills.BillRecord, error) {
	return nil, errors.New("not used")
}

func (s *fakeStore) CreateOrUpdateBill(ctx context.Context, record bills.BillRecord) (*bills.BillRecord, error) {
	s.mu.Lock()
	s.saved = append(s.saved, record)
	gate, err := s.createGate, s.createErr
	s.mu.Unlock()

	s.started <- "create:" + record.ID
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	echoed := record
	return &echoed, nil
}

func (s *fakeStore) UploadFile(ctx context.Context, file bills.UploadedFile) (*bills.FileRef, error) {
	s.mu.Lock()
	s.uploads = append(s.uploads, file)
	gate, err := s.uploadGates[file.Name], s.uploadErr
	s.mu.Unlock()

	s.started <- "upload:" + file.Name
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &bills.FileRef{
		FileURL:  "https://localhost:3456/images/" + file.Name,
		FileName: file.Name,
		Key:      "key-" + file.Name,
	}, nil
}

func (s *fakeStore) savedBills() []bills.BillRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bills.BillRecord(nil), s.saved...)
}

func (s *fakeStore) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

type navigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *navigator) navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *navigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

var (
	textFile    = bills.UploadedFile{Name: "test.txt", ContentType: "text/plain", Data: []byte("test")}
	uploadFile  = bills.UploadedFile{Name: "testUpload.jpg", ContentType: "image/jpg", Data: []byte("test")}
	formFile    = bills.UploadedFile{Name: "testForm.jpeg", ContentType: "image/jpeg", Data: []byte("test")}
	otherFile   = bills.UploadedFile{Name: "other.png", ContentType: "image/png", Data: []byte("test")}
	testSession = bills.User{Type: "Employee", Email: "employee@test.tld"}
)

var _ = Describe("Controller", func() {
	var (
		ctx        context.Context
		store      *fakeStore
		nav        *navigator
		controller *newbill.Controller
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		nav = &navigator{}
		controller = newbill.New(store, testSession, nav.navigate,
			newbill.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	})

	It("starts idle", func() {
		view := controller.Snapshot()

		Expect(view.State).To(Equal(newbill.Idle))
		Expect(view.ErrorVisible).To(BeFalse())
		Expect(view.FileURL).To(BeEmpty())
	})

	Describe("SelectFile", func() {
		It("rejects a file that is not an image without calling the store", func() {
			err := controller.SelectFile(ctx, textFile)

			var ve *bills.ValidationError
			Expect(errors.As(err, &ve)).To(BeTrue())
			view := controller.Snapshot()
			Expect(view.State).To(Equal(newbill.Rejected))
			Expect(view.FileURL).To(BeEmpty())
			Expect(view.ErrorVisible).To(BeTrue())
			Expect(store.uploadCount()).To(Equal(0))
		})

		It("uploads a valid image and keeps the file reference", func() {
			Expect(controller.SelectFile(ctx, uploadFile)).To(Succeed())

			view := controller.Snapshot()
			Expect(view.State).To(Equal(newbill.Uploaded))
			Expect(view.FileURL).To(Equal("https://localhost:3456/images/testUpload.jpg"))
			Expect(view.FileName).To(Equal("testUpload.jpg"))
			Expect(view.Key).To(Equal("key-testUpload.jpg"))
			Expect(view.ErrorVisible).To(BeFalse())
		})

		It("clears the previous upload when an invalid file follows", func() {
			Expect(controller.SelectFile(ctx, uploadFile)).To(Succeed())

			Expect(controller.SelectFile(ctx, textFile)).NotTo(Succeed())

			view := controller.Snapshot()
			Expect(view.FileURL).To(BeEmpty())
			Expect(view.Key).To(BeEmpty())
			Expect(view.ErrorVisible).To(BeTrue())
		})

		It("hides the error indicator when a valid file follows an invalid one", func() {
			Expect(controller.SelectFile(ctx, textFile)).NotTo(Succeed())

			Expect(controller.SelectFile(ctx, uploadFile)).To(Succeed())

			view := controller.Snapshot()
			Expect(view.ErrorVisible).To(BeFalse())
			Expect(view.FileURL).NotTo(BeEmpty())
		})

		It("moves to Failed and keeps the error when the upload fails", func() {
			store.uploadErr = &bills.TransportError{Op: "upload", Code: 500}

			err := controller.SelectFile(ctx, uploadFile)

			var te *bills.TransportError
			Expect(errors.As(err, &te)).To(BeTrue())
			view := controller.Snapshot()
			Expect(view.State).To(Equal(newbill.Failed))
			Expect(view.Err).To(MatchError(err))
			Expect(view.FileURL).To(BeEmpty())
			Expect(view.ErrorVisible).To(BeFalse())
		})

		It("reports Uploading while the store is busy", func() {
			gate := make(chan struct{})
			store.uploadGates[uploadFile.Name] = gate
			done := make(chan error, 1)

			go func() { done <- controller.SelectFile(ctx, uploadFile) }()
			Eventually(store.started).Should(Receive(Equal("upload:testUpload.jpg")))

			Expect(controller.Snapshot().State).To(Equal(newbill.Uploading))
			close(gate)
			Eventually(done).Should(Receive(BeNil()))
			Expect(controller.Snapshot().State).To(Equal(newbill.Uploaded))
		})

		It("discards a late upload result once a newer file was selected", func() {
			gate := make(chan struct{})
			store.uploadGates[uploadFile.Name] = gate
			first := make(chan error, 1)

			go func() { first <- controller.SelectFile(ctx, uploadFile) }()
			Eventually(store.started).Should(Receive(Equal("upload:testUpload.jpg")))

			Expect(controller.SelectFile(ctx, otherFile)).To(Succeed())
			Eventually(store.started).Should(Receive(Equal("upload:other.png")))
			close(gate)

			Eventually(first).Should(Receive(MatchError(newbill.ErrSuperseded)))
			view := controller.Snapshot()
			Expect(view.State).To(Equal(newbill.Uploaded))
			Expect(view.FileName).To(Equal("other.png"))
			Expect(view.Key).To(Equal("key-other.png"))
		})

		It("keeps a rejection when an earlier upload completes late", func() {
			gate := make(chan struct{})
			store.uploadGates[uploadFile.Name] = gate
			first := make(chan error, 1)

			go func() { first <- controller.SelectFile(ctx, uploadFile) }()
			Eventually(store.started).Should(Receive())

			Expect(controller.SelectFile(ctx, textFile)).NotTo(Succeed())
			close(gate)

			Eventually(first).Should(Receive(MatchError(newbill.ErrSuperseded)))
			view := controller.Snapshot()
			Expect(view.State).To(Equal(newbill.Rejected))
			Expect(view.FileURL).To(BeEmpty())
			Expect(view.ErrorVisible).To(BeTrue())
		})
	})

	Describe("Submit", func() {
		form := newbill.Form{
			Type:       "Transports",
			Name:       "TestForm",
			Date:       "2023-04-24",
			Amount:     1000,
			VAT:        20,
			PCT:        20,
			Commentary: "Test Mocked Data",
		}

		It("refuses to submit before an upload", func() {
			Expect(controller.Submit(ctx, form)).To(MatchError(newbill.ErrNotUploaded))

			Expect(controller.Snapshot().State).To(Equal(newbill.Idle))
			Expect(store.savedBills()).To(BeEmpty())
		})

		It("refuses to submit after a rejected file", func() {
			Expect(controller.SelectFile(ctx, textFile)).NotTo(Succeed())

			Expect(controller.Submit(ctx, form)).To(MatchError(newbill.ErrNotUploaded))
			Expect(controller.Snapshot().State).To(Equal(newbill.Rejected))
		})

		It("stores the bill once and navigates to the bills page", func() {
			Expect(controller.SelectFile(ctx, formFile)).To(Succeed())

			Expect(controller.Submit(ctx, form)).To(Succeed())

			saved := store.savedBills()
			Expect(saved).To(HaveLen(1))
			Expect(saved[0]).To(Equal(bills.BillRecord{
				ID:         "key-testForm.jpeg",
				Email:      "employee@test.tld",
				Type:       "Transports",
				Name:       "TestForm",
				Date:       "2023-04-24",
				Amount:     1000,
				VAT:        20,
				PCT:        20,
				Commentary: "Test Mocked Data",
				FileURL:    "https://localhost:3456/images/testForm.jpeg",
				FileName:   "testForm.jpeg",
				Status:     bills.StatusPending,
			}))

			view := controller.Snapshot()
			Expect(view.State).To(Equal(newbill.Completed))
			Expect(view.Bill).NotTo(BeNil())
			Expect(view.Bill.Name).To(Equal("TestForm"))
			Expect(nav.visited()).To(Equal([]string{bills.RouteBills}))
		})

		It("refuses a bill that breaks the record invariants without calling the store", func() {
			Expect(controller.SelectFile(ctx, formFile)).To(Succeed())
			bad := form
			bad.Amount = -1000
			bad.VAT = -5
			bad.Date = "not-a-date"

			err := controller.Submit(ctx, bad)

			var malformed *bills.MalformedRecordError
			Expect(errors.As(err, &malformed)).To(BeTrue())
			Expect(malformed.Problems).To(ContainElements(
				"negative amount",
				"negative vat",
				`unparseable date "not-a-date"`,
			))
			Expect(store.savedBills()).To(BeEmpty())
			Expect(controller.Snapshot().State).To(Equal(newbill.Uploaded))
			Expect(nav.visited()).To(BeEmpty())

			Expect(controller.Submit(ctx, form)).To(Succeed())
			Expect(store.savedBills()).To(HaveLen(1))
		})

		It("defaults pct to 20", func() {
			Expect(controller.SelectFile(ctx, formFile)).To(Succeed())
			noPCT := form
			noPCT.PCT = 0

			Expect(controller.Submit(ctx, noPCT)).To(Succeed())

			Expect(store.savedBills()[0].PCT).To(Equal(bills.Int(newbill.DefaultPCT)))
		})

		It("does not submit twice", func() {
			Expect(controller.SelectFile(ctx, formFile)).To(Succeed())
			Expect(controller.Submit(ctx, form)).To(Succeed())

			Expect(controller.Submit(ctx, form)).To(MatchError(newbill.ErrNotUploaded))
			Expect(store.savedBills()).To(HaveLen(1))
		})

		It("moves to Failed without navigating when the store fails", func() {
			Expect(controller.SelectFile(ctx, formFile)).To(Succeed())
			store.createErr = &bills.TransportError{Op: "update", Code: 500}

			err := controller.Submit(ctx, form)

			Expect(err).To(HaveOccurred())
			view := controller.Snapshot()
			Expect(view.State).To(Equal(newbill.Failed))
			Expect(view.Err).To(MatchError(err))
			Expect(view.FileURL).NotTo(BeEmpty())
			Expect(nav.visited()).To(BeEmpty())
		})

		It("discards a late submission once a newer file was selected", func() {
			Expect(controller.SelectFile(ctx, formFile)).To(Succeed())
			Eventually(store.started).Should(Receive())
			gate := make(chan struct{})
			store.createGate = gate
			result := make(chan error, 1)

			go func() { result <- controller.Submit(ctx, form) }()
			Eventually(store.started).Should(Receive(Equal("create:key-testForm.jpeg")))
			Expect(controller.Snapshot().State).To(Equal(newbill.Submitting))

			Expect(controller.SelectFile(ctx, otherFile)).To(Succeed())
			close(gate)

			Eventually(result).Should(Receive(MatchError(newbill.ErrSuperseded)))
			view := controller.Snapshot()
			Expect(view.State).To(Equal(newbill.Uploaded))
			Expect(view.FileName).To(Equal("other.png"))
			Expect(nav.visited()).To(BeEmpty())
		})
	})
})
