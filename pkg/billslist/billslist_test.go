package billslist_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pigeonworks-llc/billed/pkg/bills"
	"github.com/pigeonworks-llc/billed/pkg/billslist"
)

type fakeStore struct {
	mu      sync.Mutex
	records []bills.BillRecord
	err     error
	calls   int
}

func (s *fakeStore) ListBills(ctx context.Context) ([]bills.BillRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]bills.BillRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *fakeStore) CreateOrUpdateBill(ctx context.Context, record bills.BillRecord) (*bills.BillRecord, error) {
	return nil, errors.New("not used")
}

func (s *fakeStore) UploadFile(ctx context.Context, file bills.UploadedFile) (*bills.FileRef, error) {
	return nil, errors.New("not used")
}

func fixtureBills() []bills.BillRecord {
	return []bills.BillRecord{
		{ID: "47qAXb6fIm2zOKkLzMro", Name: "encore", Type: "Hôtel et logement", Date: "2004-04-04", Amount: 400, VAT: 80, PCT: 20, Status: bills.StatusPending, Email: "a@a"},
		{ID: "BeKy5Mo4jkmdfPGYpTxZ", Name: "test1", Type: "Transports", Date: "2001-01-01", Amount: 100, VAT: 20, PCT: 20, Status: bills.StatusRefused, Email: "a@a"},
		{ID: "UIUZtnPQvnbFnB0ozvJh", Name: "test3", Type: "Services en ligne", Date: "2003-03-03", Amount: 300, VAT: 60, PCT: 20, Status: bills.StatusAccepted, Email: "a@a"},
		{ID: "qcCK3SzECmaZAGRrHjaC", Name: "test2", Type: "Restaurants et bars", Date: "2002-02-02", Amount: 200, VAT: 40, PCT: 20, Status: bills.StatusRefused, Email: "a@a"},
	}
}

func rawDates(records []bills.DisplayBillRecord) []string {
	dates := make([]string, 0, len(records))
	for _, r := range records {
		dates = append(dates, r.Date)
	}
	return dates
}

var _ = Describe("Controller", func() {
	var (
		store      *fakeStore
		controller *billslist.Controller
		routes     []string
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = &fakeStore{records: fixtureBills()}
		routes = nil
		controller = billslist.New(store, billslist.Options{
			Navigator: func(route string) { routes = append(routes, route) },
			Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
	})

	Describe("LoadBills", func() {
		It("returns one display record per stored record", func() {
			result := controller.LoadBills(ctx)

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.ErrorMessage).To(BeEmpty())
			Expect(result.Bills).To(HaveLen(4))
		})

		It("orders bills from latest to earliest", func() {
			result := controller.LoadBills(ctx)

			Expect(rawDates(result.Bills)).To(Equal([]string{"2004-04-04", "2003-03-03", "2002-02-02", "2001-01-01"}))
		})

		It("formats dates and status labels", func() {
			result := controller.LoadBills(ctx)

			Expect(result.Bills[0].FormattedDate).To(Equal("4 Avr. 04"))
			Expect(result.Bills[0].StatusLabel).To(Equal("En attente"))
			Expect(result.Bills[1].StatusLabel).To(Equal("Accepté"))
			Expect(result.Bills[3].StatusLabel).To(Equal("Refusé"))
		})

		It("orders a new submission before older bills", func() {
			store.records = []bills.BillRecord{
				{ID: "a", Date: "2004-04-04", Status: bills.StatusPending},
				{ID: "b", Date: "2023-04-24", Status: bills.StatusPending},
				{ID: "c", Date: "2002-02-02", Status: bills.StatusPending},
			}

			result := controller.LoadBills(ctx)

			Expect(rawDates(result.Bills)).To(Equal([]string{"2023-04-24", "2004-04-04", "2002-02-02"}))
		})

		It("returns an empty list for an empty store", func() {
			store.records = nil

			result := controller.LoadBills(ctx)

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Bills).To(BeEmpty())
		})

		It("keeps malformed records and sorts bad dates last", func() {
			store.records = []bills.BillRecord{
				{ID: "bad-date", Date: "garbage", Status: bills.StatusPending},
				{ID: "old", Date: "2001-01-01", Status: bills.StatusPending},
				{ID: "bad-status", Date: "2010-10-10", Status: "archived", Amount: -5},
				{ID: "no-date", Status: bills.StatusAccepted},
			}

			result := controller.LoadBills(ctx)

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Bills).To(HaveLen(4))
			ids := []string{}
			for _, b := range result.Bills {
				ids = append(ids, b.ID)
			}
			Expect(ids).To(Equal([]string{"bad-status", "old", "bad-date", "no-date"}))
			Expect(result.Bills[0].StatusLabel).To(BeEmpty())
			Expect(result.Bills[2].FormattedDate).To(Equal("garbage"))
		})

		DescribeTable("maps store failures to an error message",
			func(err error, expected string) {
				store.err = err

				result := controller.LoadBills(ctx)

				Expect(result.Bills).To(BeEmpty())
				Expect(result.Err).To(HaveOccurred())
				Expect(result.ErrorMessage).To(Equal(expected))
			},
			Entry("404", &bills.TransportError{Op: "list", Code: 404, Err: errors.New("Erreur 404")}, "Erreur 404"),
			Entry("500", &bills.TransportError{Op: "list", Code: 500, Err: errors.New("Erreur 500")}, "Erreur 500"),
			Entry("other status", &bills.TransportError{Op: "list", Code: 418}, "Erreur 418"),
			Entry("network failure", &bills.TransportError{Op: "list", Err: errors.New("connection refused")}, "Erreur"),
			Entry("unexpected error", errors.New("boom"), "Erreur"),
		)

		It("is safe to call concurrently", func() {
			var wg sync.WaitGroup
			results := make([]billslist.Result, 8)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i] = controller.LoadBills(ctx)
				}(i)
			}
			wg.Wait()

			for _, r := range results {
				Expect(rawDates(r.Bills)).To(Equal([]string{"2004-04-04", "2003-03-03", "2002-02-02", "2001-01-01"}))
			}
			Expect(store.calls).To(Equal(8))
		})
	})

	Describe("NewBill", func() {
		It("navigates to the new bill form", func() {
			controller.NewBill()

			Expect(routes).To(Equal([]string{bills.RouteNewBill}))
		})

		It("does nothing without a navigator", func() {
			c := billslist.New(store, billslist.Options{})
			Expect(c.NewBill).NotTo(Panic())
		})
	})
})

var _ = Describe("SortLatestFirst", func() {
	It("is stable for equal dates", func() {
		records := []bills.DisplayBillRecord{
			{BillRecord: bills.BillRecord{ID: "1", Date: "2020-01-01"}},
			{BillRecord: bills.BillRecord{ID: "2", Date: "2021-01-01"}},
			{BillRecord: bills.BillRecord{ID: "3", Date: "2020-01-01"}},
		}

		billslist.SortLatestFirst(records)

		Expect(records[0].ID).To(Equal("2"))
		Expect(records[1].ID).To(Equal("1"))
		Expect(records[2].ID).To(Equal("3"))
	})
})
