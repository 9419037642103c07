package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
	"github.com/litikesh/Patient-Record-Management-System/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writePatients(w io.Writer, patients []patient.Patient) {
	if len(patients) == 0 {
		fmt.Fprintln(w, "No patients found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tDOB\tGENDER\tPHONE\tEMAIL\tBLOOD\tREGISTERED")
	for _, p := range patients {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.FullName(), p.DateOfBirth, p.Gender, p.Phone, p.Email,
			dash(p.BloodGroup), formatTime(p.CreatedAt))
	}
	tw.Flush()
}

func writePatientDetail(w io.Writer, p patient.Patient, recs []patient.MedicalRecord) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%d\n", p.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", p.FullName())
	fmt.Fprintf(tw, "Date of birth:\t%s\n", p.DateOfBirth)
	fmt.Fprintf(tw, "Gender:\t%s\n", p.Gender)
	fmt.Fprintf(tw, "Phone:\t%s\n", p.Phone)
	fmt.Fprintf(tw, "Email:\t%s\n", p.Email)
	fmt.Fprintf(tw, "Address:\t%s\n", p.Address)
	fmt.Fprintf(tw, "Weight:\t%s\n", formatMeasure(p.Weight, "kg"))
	fmt.Fprintf(tw, "Height:\t%s\n", formatMeasure(p.Height, "cm"))
	fmt.Fprintf(tw, "Blood group:\t%s\n", dash(p.BloodGroup))
	fmt.Fprintf(tw, "Blood pressure:\t%s\n", dash(p.BloodPressure))
	fmt.Fprintf(tw, "Registered:\t%s\n", formatTime(p.CreatedAt))
	tw.Flush()

	fmt.Fprintln(w)
	writeRecords(w, recs)
}

func writeRecords(w io.Writer, recs []patient.MedicalRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No medical records.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "RECORD\tCREATED\tPROVIDER\tINSURANCE ID\tNOTES")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, formatTime(r.CreatedAt), deref(r.InsuranceProvider), deref(r.InsuranceID), deref(r.MedicalNotes))
	}
	tw.Flush()
}

// writeRows prints raw query rows with columns in name order.
func writeRows(w io.Writer, rows []store.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return
	}

	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	sort.Strings(cols)

	tw := newTable(w)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = formatCell(row[col])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return formatTime(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	}
	return fmt.Sprint(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func formatMeasure(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return dash(*s)
}
