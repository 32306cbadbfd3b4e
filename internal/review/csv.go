package review

import (
	"encoding/csv"
	"io"
	"time"
)

// csvTimeLayout matches the dashboard's rendered date-time.
const csvTimeLayout = "02 Jan 2006, 03:04 PM"

var csvHeader = []string{
	"Token", "Name", "Email", "Company", "Title", "Phone",
	"Book Collected", "Correct Email ID", "Registered At",
}

// ExportCSV serializes the currently cached rows (no fresh fetch) in the
// fixed column order. Absent optional fields render as empty strings and
// booleans as Yes/No; encoding/csv handles delimiter quoting.
func (s *Session) ExportCSV(w io.Writer) error {
	rows := s.Rows()

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			deref(r.TokenNumber),
			r.Name,
			r.Email,
			deref(r.Company),
			r.Title,
			r.Phone,
			yesNo(r.BookCollected),
			deref(r.CorrectEmailID),
			r.CreatedAt.Local().Format(csvTimeLayout),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names a dated export file.
func ExportFilename(now time.Time) string {
	return "thit-registrations-" + now.Format("2006-01-02") + ".csv"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
