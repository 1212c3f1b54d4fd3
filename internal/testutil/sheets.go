package testutil

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// SheetHeader is the standard header row of the employee sheet.
var SheetHeader = []string{"Name", "Email", "Role", "SeniorityLevel", "CurrentProject", "Skills", "ResumeLink", "Status"}

// ErrFakeOutage is returned by FakeSheet while Down is set.
var ErrFakeOutage = errors.New("fake sheet: service unavailable")

// FakeSheet is an in-memory spreadsheet tab implementing the values client
// used by the authenticated strategy. Row 0 is the header.
type FakeSheet struct {
	mu   sync.Mutex
	rows [][]string

	// Down makes every call fail with ErrFakeOutage.
	Down bool
	// WriteDown makes only Append and Update fail.
	WriteDown bool

	Gets    int
	Appends int
	Updates int
	// LastRange is the range of the most recent write.
	LastRange string
}

// NewFakeSheet returns a sheet holding the standard header plus rows.
func NewFakeSheet(rows ...[]string) *FakeSheet {
	all := [][]string{append([]string(nil), SheetHeader...)}
	for _, r := range rows {
		all = append(all, append([]string(nil), r...))
	}
	return &FakeSheet{rows: all}
}

// Rows returns a copy of the current contents, header included.
func (f *FakeSheet) Rows() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyRows(f.rows)
}

// Writes returns the number of Append and Update calls.
func (f *FakeSheet) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Appends + f.Updates
}

func (f *FakeSheet) Get(ctx context.Context, rng string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Gets++
	if f.Down {
		return nil, ErrFakeOutage
	}
	return copyRows(f.rows), nil
}

func (f *FakeSheet) Append(ctx context.Context, rng string, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Appends++
	if f.Down || f.WriteDown {
		return ErrFakeOutage
	}
	f.LastRange = rng
	f.rows = append(f.rows, copyRows(rows)...)
	return nil
}

func (f *FakeSheet) Update(ctx context.Context, rng string, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates++
	if f.Down || f.WriteDown {
		return ErrFakeOutage
	}
	f.LastRange = rng
	col, row, err := parseCell(rng)
	if err != nil {
		return err
	}
	for i, cells := range rows {
		r := row + i
		for len(f.rows) <= r {
			f.rows = append(f.rows, nil)
		}
		for j, v := range cells {
			c := col + j
			for len(f.rows[r]) <= c {
				f.rows[r] = append(f.rows[r], "")
			}
			f.rows[r][c] = v
		}
	}
	return nil
}

// parseCell returns the zero-based column and row of the first cell of an
// A1 range such as "'Tab'!A5:H5" or "H7".
func parseCell(rng string) (col, row int, err error) {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	if i := strings.Index(rng, ":"); i >= 0 {
		rng = rng[:i]
	}
	i := 0
	for i < len(rng) && rng[i] >= 'A' && rng[i] <= 'Z' {
		col = col*26 + int(rng[i]-'A'+1)
		i++
	}
	n, err := strconv.Atoi(rng[i:])
	if err != nil || i == 0 || n < 1 {
		return 0, 0, fmt.Errorf("fake sheet: bad range %q", rng)
	}
	return col - 1, n - 1, nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// FakeFetcher serves fixed CSV rows in place of a published export.
type FakeFetcher struct {
	mu   sync.Mutex
	Rows [][]string
	Err  error

	Calls   int
	LastURL string
}

func (f *FakeFetcher) Fetch(ctx context.Context, rawURL string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.LastURL = rawURL
	if f.Err != nil {
		return nil, f.Err
	}
	return copyRows(f.Rows), nil
}
