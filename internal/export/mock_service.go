// Package export provides mock implementations for testing.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/statistics102/course-monitor/internal/downloads"
)

// MockService is a mock implementation of ServiceInterface for testing.
type MockService struct {
	mu            sync.Mutex
	Rows          []Row
	shouldSucceed bool
	exportCalls   int
}

// NewMockService creates a mock that returns rows from BuildRows.
func NewMockService(rows ...Row) *MockService {
	return &MockService{Rows: rows, shouldSucceed: true}
}

// SetShouldSucceed controls whether Export and WriteWorkbook fail.
func (m *MockService) SetShouldSucceed(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldSucceed = ok
}

// ExportCalls returns how many times Export ran.
func (m *MockService) ExportCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exportCalls
}

// BuildRows returns the configured rows.
func (m *MockService) BuildRows(context.Context) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Row(nil), m.Rows...), nil
}

// WriteWorkbook writes one line per row instead of a real workbook.
func (m *MockService) WriteWorkbook(rows []Row, w io.Writer) error {
	m.mu.Lock()
	ok := m.shouldSucceed
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("mock export failed")
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%d\n", r.SubmissionID); err != nil {
			return err
		}
	}
	return nil
}

// Export performs a mock export operation.
func (m *MockService) Export(ctx context.Context, rows []Row, saver downloads.Saver) (*Result, error) {
	m.mu.Lock()
	m.exportCalls++
	ok := m.shouldSucceed
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("mock export failed")
	}
	path, err := saver.Save(ctx, "mock.xlsx", MediaType, strings.NewReader("mock export data"))
	if err != nil {
		return nil, err
	}
	return &Result{FileName: "mock.xlsx", Path: path, RowCount: len(rows)}, nil
}

var _ ServiceInterface = (*MockService)(nil)
