package integration

import (
	"fmt"
	"time"

	"github.com/pigeonworks-llc/billed/pkg/bills"
	"github.com/pigeonworks-llc/billed/pkg/newbill"
)

// Smallest byte prefixes that sniff as the receipt image types.
var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	jpegBytes = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), make([]byte, 32)...)
)

// TestDataBuilder provides helper methods for building test data.
type TestDataBuilder struct {
	email string
}

// NewTestDataBuilder creates a new TestDataBuilder for one employee.
func NewTestDataBuilder(email string) *TestDataBuilder {
	return &TestDataBuilder{email: email}
}

// PNG returns a receipt that passes validation.
func (b *TestDataBuilder) PNG(name string) bills.UploadedFile {
	return bills.UploadedFile{Name: name, ContentType: "image/png", Data: pngBytes}
}

// JPEG returns a receipt that passes validation.
func (b *TestDataBuilder) JPEG(name string) bills.UploadedFile {
	return bills.UploadedFile{Name: name, ContentType: "image/jpeg", Data: jpegBytes}
}

// Form creates a filled new bill form.
func (b *TestDataBuilder) Form(expenseType string, amount int64, date string) newbill.Form {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	return newbill.Form{
		Type:   expenseType,
		Name:   fmt.Sprintf("%s %s", expenseType, date),
		Date:   date,
		Amount: amount,
		VAT:    amount / 6,
	}
}

// Bill creates a stored bill as another tool would write it.
func (b *TestDataBuilder) Bill(name string, amount int64, date string) bills.BillRecord {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	return bills.BillRecord{
		Email:  b.email,
		Type:   "Transports",
		Name:   name,
		Date:   date,
		Amount: bills.Int(amount),
		VAT:    bills.Int(amount / 6),
		PCT:    20,
		Status: bills.StatusPending,
	}
}

// Session returns the signed-in employee.
func (b *TestDataBuilder) Session() bills.User {
	return bills.User{Type: "Employee", Email: b.email}
}

// GenerateDateSequence generates a sequence of dates for testing.
func GenerateDateSequence(start time.Time, count int) []string {
	dates := make([]string, count)
	for i := 0; i < count; i++ {
		dates[i] = start.AddDate(0, 0, i).Format("2006-01-02")
	}
	return dates
}
